package odoo

// Record is one row returned by read. Odoo encodes empty scalars as false
// and many2one values as [id, "display name"], so accessors tolerate both.
type Record map[string]interface{}

// String returns a char/text field, or "" when empty or not a string.
func (r Record) String(field string) string {
	if s, ok := r[field].(string); ok {
		return s
	}
	return ""
}

// Float returns a numeric field, or 0.
func (r Record) Float(field string) float64 {
	switch v := r[field].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

// Bool returns a boolean field; anything else is false.
func (r Record) Bool(field string) bool {
	b, _ := r[field].(bool)
	return b
}

// Many2One returns the id and display name of a relational field.
func (r Record) Many2One(field string) (int64, string, bool) {
	pair, ok := r[field].([]interface{})
	if !ok || len(pair) < 1 {
		return 0, "", false
	}
	id, ok := toID(pair[0])
	if !ok {
		return 0, "", false
	}
	var name string
	if len(pair) > 1 {
		name, _ = pair[1].(string)
	}
	return id, name, true
}

// IDs returns a one2many/many2many id list.
func (r Record) IDs(field string) []int64 {
	list, ok := r[field].([]interface{})
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(list))
	for _, v := range list {
		if id, ok := toID(v); ok {
			out = append(out, id)
		}
	}
	return out
}

func toID(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), n > 0
	case int64:
		return n, n > 0
	case int:
		return int64(n), n > 0
	}
	return 0, false
}
