package models

// BasicConfig is a loosely typed bag of provider-specific settings. Sync
// targets carry their auth material in one of these (url/username/password
// for WebDAV, client and token fields for the OAuth providers) so the core
// never has to know the union of every backend's credential shape.
type BasicConfig map[string]any

func (pc *BasicConfig) GetString(key string) (string, bool) {
	if pc == nil {
		return "", false
	}
	if value, ok := (*pc)[key]; ok {
		if strValue, ok := value.(string); ok {
			return strValue, true
		}
	}
	return "", false
}

func (pc *BasicConfig) GetStringWithDefault(key string, defaultValue string) string {
	if value, ok := pc.GetString(key); ok && len(value) > 0 {
		return value
	}
	return defaultValue
}

func (pc *BasicConfig) GetBool(key string) (bool, bool) {
	if pc == nil {
		return false, false
	}
	if value, ok := (*pc)[key]; ok {
		if boolValue, ok := value.(bool); ok {
			return boolValue, true
		}
	}
	return false, false
}

func (pc *BasicConfig) GetStringSlice(key string) ([]string, bool) {
	if pc == nil {
		return nil, false
	}
	if value, ok := (*pc)[key]; ok {
		switch sliceValue := value.(type) {
		case []string:
			return sliceValue, true
		case []any:
			out := make([]string, 0, len(sliceValue))
			for _, item := range sliceValue {
				if str, ok := item.(string); ok {
					out = append(out, str)
				}
			}
			return out, true
		}
	}
	return nil, false
}

func (pc *BasicConfig) SetKeyWithValue(key string, value any) {
	if pc == nil {
		return
	}
	if *pc == nil {
		*pc = BasicConfig{}
	}
	(*pc)[key] = value
}

func (pc *BasicConfig) AsMap() map[string]any {
	if pc == nil {
		return map[string]any{}
	}
	return map[string]any(*pc)
}
