package tools

import (
	"strings"

	"github.com/mitchellh/mapstructure"
)

// DecodeArgs decodes validated tool arguments into a typed struct using
// `arg` tags. Keys match case-insensitively, ignoring '_' and '-'.
func DecodeArgs(args map[string]any, out any) error {
	cfg := &mapstructure.DecoderConfig{
		TagName:          "arg",
		Result:           out,
		WeaklyTypedInput: true,
		MatchName: func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		},
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return decoder.Decode(args)
}

func normalizeKey(value string) string {
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}
