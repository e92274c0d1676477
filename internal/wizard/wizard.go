// Package wizard imports a brand-setup export (JSON or YAML) as a
// PipelineContext.
package wizard

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/visibility-cli/internal/model"
)

// ErrInvalid is returned when an export lacks a required field.
var ErrInvalid = eris.New("wizard: invalid export")

// Document is the export layout. JSON exports decode through the YAML
// parser, so only yaml tags are needed.
type Document struct {
	BrandInfo   BrandInfo      `yaml:"brandInfo"`
	Competitors Items[Brand]   `yaml:"competitors"`
	Personas    Items[Persona] `yaml:"personas"`
	Funnel      Items[Stage]   `yaml:"funnel"`
	Keywords    Keywords       `yaml:"keywords"`
}

// BrandInfo is the audited brand.
type BrandInfo struct {
	Name        string   `yaml:"name"`
	ShortName   string   `yaml:"shortName"`
	Domain      string   `yaml:"domain"`
	Sector      string   `yaml:"sector"`
	Sectors     []string `yaml:"sectors"`
	Language    string   `yaml:"language"`
	Country     string   `yaml:"country"`
	Description string   `yaml:"description"`
}

// Brand is a competitor entry.
type Brand struct {
	Name      string `yaml:"name"`
	ShortName string `yaml:"shortName"`
	Domain    string `yaml:"domain"`
}

// Persona is a persona entry.
type Persona struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Stage is a funnel stage entry.
type Stage struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Examples    []string `yaml:"examples"`
}

// Keywords holds user-supplied keywords.
type Keywords struct {
	Custom []string `yaml:"custom"`
	Seed   []string `yaml:"seed"`
}

// Items is a wizard section. Exports wrap lists as {"items": [...]}; a bare
// list is accepted too.
type Items[T any] struct {
	Items   []T
	present bool
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (i *Items[T]) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		i.present = true
		return node.Decode(&i.Items)
	case yaml.MappingNode:
		var wrapped struct {
			Items *[]T `yaml:"items"`
		}
		if err := node.Decode(&wrapped); err != nil {
			return err
		}
		if wrapped.Items != nil {
			i.present = true
			i.Items = *wrapped.Items
		}
		return nil
	}
	return eris.Errorf("wizard: line %d: expected a list or an object with items", node.Line)
}

// Load reads and validates the export at path.
func Load(path string) (*model.PipelineContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "wizard: read %s", path)
	}
	pc, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "wizard: %s", path)
	}
	return pc, nil
}

// Parse decodes and validates an export.
func Parse(data []byte) (*model.PipelineContext, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(ErrInvalid, err.Error())
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc.Context(), nil
}

// Validate reports every missing required field at once.
func (d *Document) Validate() error {
	var missing []string
	if strings.TrimSpace(d.BrandInfo.Domain) == "" {
		missing = append(missing, "brandInfo.domain")
	}
	if d.sector() == "" {
		missing = append(missing, "brandInfo.sector")
	}
	if strings.TrimSpace(d.BrandInfo.Language) == "" {
		missing = append(missing, "brandInfo.language")
	}
	if !d.Personas.present {
		missing = append(missing, "personas.items")
	}
	if len(missing) > 0 {
		return eris.Wrapf(ErrInvalid, "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func (d *Document) sector() string {
	if s := strings.TrimSpace(d.BrandInfo.Sector); s != "" {
		return s
	}
	for _, s := range d.BrandInfo.Sectors {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// Context converts a validated document.
func (d *Document) Context() *model.PipelineContext {
	bi := d.BrandInfo
	domain := strings.TrimSpace(bi.Domain)
	name := strings.TrimSpace(bi.Name)
	if name == "" {
		name = nameFromDomain(domain)
	}

	pc := &model.PipelineContext{
		BrandInfo: model.BrandInfo{
			Name:        name,
			ShortName:   strings.TrimSpace(bi.ShortName),
			Domain:      domain,
			Sector:      d.sector(),
			Language:    strings.TrimSpace(bi.Language),
			Country:     strings.TrimSpace(bi.Country),
			Description: strings.TrimSpace(bi.Description),
		},
		CustomKeywords: nonEmpty(d.Keywords.Custom),
		SeedKeywords:   nonEmpty(d.Keywords.Seed),
	}

	pc.Brands = append(pc.Brands, model.Brand{
		Name:      name,
		ShortName: pc.BrandInfo.ShortName,
		Domain:    domain,
	})
	for _, c := range d.Competitors.Items {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		pc.Brands = append(pc.Brands, model.Brand{
			Name:         strings.TrimSpace(c.Name),
			ShortName:    strings.TrimSpace(c.ShortName),
			Domain:       strings.TrimSpace(c.Domain),
			IsCompetitor: true,
		})
	}
	for _, p := range d.Personas.Items {
		pc.Personas = append(pc.Personas, model.Persona{Name: p.Name, Description: p.Description})
	}
	for _, s := range d.Funnel.Items {
		pc.Funnel = append(pc.Funnel, model.FunnelStage{Name: s.Name, Description: s.Description, Examples: s.Examples})
	}
	if len(pc.Funnel) == 0 {
		pc.Funnel = DefaultFunnel()
	}
	return pc
}

// DefaultFunnel is used when an export carries no funnel.
func DefaultFunnel() []model.FunnelStage {
	return []model.FunnelStage{
		{Name: "awareness", Description: "The user has a need and explores the category."},
		{Name: "consideration", Description: "The user compares options and providers."},
		{Name: "decision", Description: "The user is ready to choose or buy."},
	}
}

func nameFromDomain(domain string) string {
	d := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(domain), "https://"), "http://")
	d = strings.TrimPrefix(d, "www.")
	label, _, _ := strings.Cut(d, ".")
	return label
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
