package plansource

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/restomenu/menukit/pkg/subscription"
)

// fileDocument is the on-disk catalog shape:
//
//	plans:
//	  - id: 1
//	    name: Starter
//	    price: {amount: 900, currency: USD}
//	    limits:
//	      maxProducts: 30
//	      apiAccess: false
type fileDocument struct {
	Plans []subscription.Plan `yaml:"plans"`
}

type fileSource struct {
	path string
}

// NewFileSource returns a Source reading the catalog from a YAML file.
// The file is re-read on every Load, so Catalog.Reload picks up edits
// without a restart.
func NewFileSource(path string) Source {
	if path == "" {
		panic("plansource: file path is required")
	}
	return &fileSource{path: path}
}

func (s *fileSource) Load(ctx context.Context) ([]subscription.Plan, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrLoadFailed, fmt.Errorf("parse %s: %w", s.path, err))
	}

	for i, p := range doc.Plans {
		if p.ID <= 0 {
			return nil, fmt.Errorf("%w: plans[%d] has no id", ErrLoadFailed, i)
		}
		if p.Name == "" {
			return nil, fmt.Errorf("%w: plans[%d] has no name", ErrLoadFailed, i)
		}
	}
	return doc.Plans, nil
}
