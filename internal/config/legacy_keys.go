package config

import (
	"reflect"
	"strings"
)

// normalizeLegacyConfigMap maps legacy YAML keys (without underscores) to the
// canonical snake_case keys defined by mapstructure tags. It mutates and returns
// the provided map.
func normalizeLegacyConfigMap(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}
	applyLegacyPathMappings(data)
	return normalizeMapForStruct(data, reflect.TypeOf(Config{}))
}

// applyLegacyPathMappings migrates flat pre-1.0 keys into their current
// nested homes. db_path moved under storage.path when the SQLite layer
// replaced the original flat-file store; consensus_threshold moved under
// consensus.min_agreement_rate when the consensus engine's own config
// section was introduced.
func applyLegacyPathMappings(data map[string]interface{}) {
	if val, ok := data["db_path"]; ok {
		storage := ensureMap(data, "storage")
		if _, exists := storage["path"]; !exists {
			storage["path"] = val
		}
		delete(data, "db_path")
	}

	if val, ok := data["consensus_threshold"]; ok {
		consensus := ensureMap(data, "consensus")
		if _, exists := consensus["min_agreement_rate"]; !exists {
			consensus["min_agreement_rate"] = val
		}
		delete(data, "consensus_threshold")
	}
}

func ensureMap(data map[string]interface{}, key string) map[string]interface{} {
	if existing, ok := data[key].(map[string]interface{}); ok {
		return existing
	}
	next := make(map[string]interface{})
	data[key] = next
	return next
}

func normalizeMapForStruct(data map[string]interface{}, t reflect.Type) map[string]interface{} {
	if data == nil {
		return nil
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return data
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := canonicalTagName(field)
		if name == "" || name == "-" {
			continue
		}

		legacy := strings.ReplaceAll(name, "_", "")
		if legacy != name {
			if val, ok := data[legacy]; ok {
				if _, exists := data[name]; !exists {
					data[name] = val
				}
				delete(data, legacy)
			}
		}

		if val, ok := data[name]; ok {
			data[name] = normalizeValueForType(val, field.Type)
		}
	}

	return data
}

func normalizeValueForType(value interface{}, t reflect.Type) interface{} {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		if m, ok := value.(map[string]interface{}); ok {
			return normalizeMapForStruct(m, t)
		}
	case reflect.Slice:
		// Only normalize slices of structs/pointers to structs.
		if t.Elem().Kind() == reflect.Struct || (t.Elem().Kind() == reflect.Pointer && t.Elem().Elem().Kind() == reflect.Struct) {
			if list, ok := value.([]interface{}); ok {
				out := make([]interface{}, 0, len(list))
				for _, item := range list {
					out = append(out, normalizeValueForType(item, t.Elem()))
				}
				return out
			}
		}
	}

	return value
}

func canonicalTagName(field reflect.StructField) string {
	if tag := field.Tag.Get("mapstructure"); tag != "" {
		return strings.Split(tag, ",")[0]
	}
	if tag := field.Tag.Get("yaml"); tag != "" {
		return strings.Split(tag, ",")[0]
	}
	return strings.ToLower(field.Name)
}

