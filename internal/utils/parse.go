package utils

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

// ParseJSONAs unmarshals content into a value of type T. When strict
// unmarshaling fails, the content is run through jsonrepair once and
// decoding is retried: models routinely emit almost-JSON (single quotes,
// trailing commas, unquoted keys) that the repair pass recovers.
//
// Example:
//
//	type envelope struct {
//	    Tool      string          `json:"tool"`
//	    Arguments json.RawMessage `json:"arguments"`
//	}
//
//	env, err := utils.ParseJSONAs[envelope](`{tool: 'lookup', arguments: {}}`)
func ParseJSONAs[T any](content string) (T, error) {
	var result T

	err := json.Unmarshal([]byte(content), &result)
	if err == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return result, fmt.Errorf("failed to unmarshal content as %T: %w (repair error: %v)", result, err, repairErr)
	}

	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w", result, err)
	}
	return result, nil
}
