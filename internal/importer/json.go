package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidJSONImport = errors.New("invalid json import")

// jsonQuestion is one element of a bulk-correction JSON document, in the editor's
// camelCase layout.
type jsonQuestion struct {
	ID            *int     `json:"id" validate:"required,min=1,max=50"`
	Instruction   *string  `json:"instruction"`
	Question      *string  `json:"question"`
	Passage       *string  `json:"passage"`
	ContextBox    *string  `json:"contextBox"`
	Options       []string `json:"options" validate:"required,len=4"`
	CorrectAnswer *int     `json:"correctAnswer" validate:"omitempty,min=0,max=3"`
	Score         *int     `json:"score" validate:"omitempty,min=0"`
	Explanation   *string  `json:"explanation"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// PatchesFromJSON validates a JSON array of question objects and converts it into patches.
// Any structural problem rejects the whole document so that nothing is half-applied.
func PatchesFromJSON(data []byte) ([]Patch, error) {
	var items []jsonQuestion
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: expected an array of questions: %v", ErrInvalidJSONImport, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrInvalidJSONImport)
	}

	patches := make([]Patch, 0, len(items))
	for i, item := range items {
		if err := validate.Struct(item); err != nil {
			return nil, fmt.Errorf("%w: item %d: %s", ErrInvalidJSONImport, i, describeValidation(err))
		}
		p := Patch{
			Number:        *item.ID,
			Instruction:   item.Instruction,
			Question:      item.Question,
			Passage:       item.Passage,
			ContextBox:    item.ContextBox,
			CorrectAnswer: item.CorrectAnswer,
			Score:         item.Score,
			Explanation:   item.Explanation,
		}
		for j := range item.Options {
			opt := item.Options[j]
			p.Options[j] = &opt
		}
		patches = append(patches, p)
	}
	return patches, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "len":
		return fmt.Sprintf("%s must contain exactly %s entries", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
