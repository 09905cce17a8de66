package protocol

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/simple-clinic/clinic-sync/pkg/common/grouping"
	"gopkg.in/yaml.v3"
)

// GroupDrugs folds drugs sharing a name into one entry, in the order
// each name first appears, dosages sorted by their protocol order.
func GroupDrugs(drugs []ProtocolDrug) []DrugAndDosages {
	groups := grouping.ByKey(drugs,
		func(d ProtocolDrug) string { return d.Name },
		func(d ProtocolDrug) int { return d.Order },
	)
	out := make([]DrugAndDosages, 0, len(groups))
	for _, g := range groups {
		out = append(out, DrugAndDosages{DrugName: g.Key, Drugs: g.Items})
	}
	return out
}

type CatalogueDrug struct {
	Name       string   `yaml:"name"`
	RxNormCode string   `yaml:"rxnorm_code"`
	Dosages    []string `yaml:"dosages"`
}

type DrugCatalogue struct {
	Drugs []CatalogueDrug `yaml:"drugs"`
}

// LoadDefaultDrugs reads the fallback drug list. An empty path selects the
// built-in list; so does an unreadable file, alongside the error.
func LoadDefaultDrugs(path string) ([]DrugAndDosages, error) {
	if path == "" {
		return DefaultDrugs(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultDrugs(), err
	}

	var catalogue DrugCatalogue
	if err := yaml.Unmarshal(content, &catalogue); err != nil {
		return nil, fmt.Errorf("parse drug catalogue %s: %w", path, err)
	}
	if len(catalogue.Drugs) == 0 {
		return nil, errors.New("no default drugs configured")
	}
	return catalogue.Expand(), nil
}

func DefaultDrugs() []DrugAndDosages {
	return DrugCatalogue{Drugs: []CatalogueDrug{
		{Name: "Amlodipine", RxNormCode: "329528", Dosages: []string{"5 mg", "10 mg"}},
		{Name: "Telmisartan", RxNormCode: "316764", Dosages: []string{"40 mg", "80 mg"}},
		{Name: "Chlorthalidone", RxNormCode: "331132", Dosages: []string{"12.5 mg", "25 mg"}},
	}}.Expand()
}

// Expand turns the catalogue into protocol drugs with stable ids, one per
// dosage, not bound to any protocol.
func (c DrugCatalogue) Expand() []DrugAndDosages {
	var drugs []ProtocolDrug
	for _, entry := range c.Drugs {
		for _, dosage := range entry.Dosages {
			drugs = append(drugs, ProtocolDrug{
				ID:         uuid.NewSHA1(uuid.NameSpaceOID, []byte("default-drug:"+entry.Name+":"+dosage)),
				Name:       entry.Name,
				Dosage:     dosage,
				RxNormCode: entry.RxNormCode,
				Order:      len(drugs),
			})
		}
	}
	return GroupDrugs(drugs)
}

func cloneDrugs(groups []DrugAndDosages) []DrugAndDosages {
	out := make([]DrugAndDosages, 0, len(groups))
	for _, g := range groups {
		out = append(out, DrugAndDosages{DrugName: g.DrugName, Drugs: append([]ProtocolDrug(nil), g.Drugs...)})
	}
	return out
}
