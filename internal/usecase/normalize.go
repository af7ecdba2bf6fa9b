package usecase

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

// InquiryNormalizer turns a raw submission into canonical lead data.
type InquiryNormalizer struct {
	validate *validator.Validate
}

func NewInquiryNormalizer() *InquiryNormalizer {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &InquiryNormalizer{validate: v}
}

// Normalize trims and canonicalizes the submission and validates it. It has
// no side effects; a *DomainError with CodeValidation lists every bad field.
func (n *InquiryNormalizer) Normalize(raw RawSubmission) (entity.LeadData, error) {
	sub := RawSubmission{
		Name:             collapseSpaces(raw.Name),
		Email:            strings.ToLower(strings.TrimSpace(raw.Email)),
		Phone:            strings.TrimSpace(raw.Phone),
		Message:          strings.TrimSpace(raw.Message),
		SourceURL:        strings.TrimSpace(raw.SourceURL),
		SourceTitle:      collapseSpaces(raw.SourceTitle),
		SourceTag:        strings.TrimSpace(raw.SourceTag),
		Tags:             cleanTags(raw.Tags),
		ConsentPrivacy:   raw.ConsentPrivacy,
		ConsentMarketing: raw.ConsentMarketing,
	}

	if err := n.validate.Struct(sub); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return entity.LeadData{}, newValidationError([]FieldError{{Field: "submission", Message: err.Error()}})
		}
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Message: describeTag(fe)})
		}
		return entity.LeadData{}, newValidationError(fields)
	}

	return entity.LeadData{
		Name:             sub.Name,
		Email:            sub.Email,
		Phone:            sub.Phone,
		Message:          sub.Message,
		SourceURL:        sub.SourceURL,
		SourceTitle:      sub.SourceTitle,
		SourceTag:        sub.SourceTag,
		Tags:             sub.Tags,
		ConsentPrivacy:   sub.ConsentPrivacy,
		ConsentMarketing: sub.ConsentMarketing,
	}, nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "is invalid"
	case "url":
		return "must be a valid URL"
	case "max":
		if fe.Kind() == reflect.Slice {
			return "must not have more than " + fe.Param() + " items"
		}
		return "must not exceed " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanTags trims, drops empties and de-duplicates while keeping order.
func cleanTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
