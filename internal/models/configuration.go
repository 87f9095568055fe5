package models

import "encoding/json"

// AppConfiguration is the per-user configuration served by the upstream.
// Only Language is interpreted; every other key is kept verbatim.
type AppConfiguration struct {
	Language string                     `json:"-"`
	Extra    map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the open-ended configuration object.
func (c *AppConfiguration) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if lang, ok := raw["language"]; ok {
		if err := json.Unmarshal(lang, &c.Language); err != nil {
			return err
		}
		delete(raw, "language")
	}
	c.Extra = raw
	return nil
}

// MarshalJSON encodes the configuration back into a flat object.
func (c AppConfiguration) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(c.Extra)+1)
	for k, v := range c.Extra {
		out[k] = v
	}
	if c.Language != "" {
		lang, err := json.Marshal(c.Language)
		if err != nil {
			return nil, err
		}
		out["language"] = lang
	}
	return json.Marshal(out)
}
