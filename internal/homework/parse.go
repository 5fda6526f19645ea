package homework

import "fmt"

// Parser builds notification text from a work item using a Catalog.
type Parser struct {
	catalog Catalog
}

func NewParser(c Catalog) *Parser { return &Parser{catalog: c} }

func (p *Parser) Catalog() Catalog { return p.catalog }

// Parse returns `Changed review status for "<name>". <text>` for item.
// Both status and homework_name must be present strings.
func (p *Parser) Parse(item WorkItem) (string, error) {
	m, ok := item.(map[string]any)
	if !ok {
		return "", ShapeError("work item not a mapping")
	}
	// status is checked first so an item missing both reports status.
	code, err := stringField(m, keyStatus)
	if err != nil {
		return "", err
	}
	name, err := stringField(m, keyName)
	if err != nil {
		return "", err
	}
	text, err := p.catalog.Lookup(code)
	if err != nil {
		return "", err
	}
	return FormatChange(name, text), nil
}

// FormatChange renders a status change message.
func FormatChange(name, text string) string {
	return fmt.Sprintf("Changed review status for \"%s\". %s", name, text)
}

func stringField(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", MissingFieldError(key)
	}
	s, ok := v.(string)
	if !ok {
		return "", ShapeError(fmt.Sprintf("%s is not a string", key))
	}
	return s, nil
}
