/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	regerrors "github.com/suparena/indexregistry/errors"
)

// KeyTemplates describes how section and document ids map onto the table's
// partition and sort keys. Templates use {Section} and {ID} macros; the
// partition key may only reference {Section}.
type KeyTemplates struct {
	PK string
	SK string
}

// DefaultKeyTemplates stores each section in its own partition.
var DefaultKeyTemplates = KeyTemplates{
	PK: "SECTION#{Section}",
	SK: "DOC#{ID}",
}

// metaSK is the sort key of the marker item that records a section exists.
const metaSK = "#SECTION"

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

type keyInput struct {
	Section string
	ID      string
}

func (k KeyTemplates) validate() error {
	if k.PK == "" || k.SK == "" {
		return fmt.Errorf("key templates need both PK and SK")
	}
	if strings.Contains(k.PK, "{ID}") {
		return fmt.Errorf("PK template %q must not reference {ID}", k.PK)
	}
	// Sections own their partition; a shared partition would let one
	// section's DeleteIndex sweep another's documents.
	if !strings.Contains(k.PK, "{Section}") {
		return fmt.Errorf("PK template %q must reference {Section}", k.PK)
	}
	if !strings.Contains(k.SK, "{ID}") {
		return fmt.Errorf("SK template %q must reference {ID}", k.SK)
	}
	if macroPattern.ReplaceAllString(k.SK, "") == "" {
		return fmt.Errorf("SK template %q needs a literal part to stay apart from the section marker", k.SK)
	}
	return nil
}

// expandMacros replaces each {Field} in the templates with the matching field of keys.
func expandMacros(templates map[string]string, keys any) (map[string]string, error) {
	av, err := attributevalue.MarshalMap(keys)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key input: %w", err)
	}

	res := make(map[string]string, len(templates))
	for fieldName, template := range templates {
		res[fieldName] = macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			key := strings.Trim(macro, "{}")

			val, ok := av[key]
			if !ok {
				return ""
			}

			switch tv := val.(type) {
			case *types.AttributeValueMemberS:
				return tv.Value
			case *types.AttributeValueMemberN:
				return tv.Value
			default:
				return ""
			}
		})
	}
	return res, nil
}

func (k KeyTemplates) partition(section string) (string, error) {
	expanded, err := expandMacros(map[string]string{"PK": k.PK}, keyInput{Section: section})
	if err != nil {
		return "", err
	}
	return expanded["PK"], nil
}

func (k KeyTemplates) document(section, id string) (map[string]types.AttributeValue, error) {
	expanded, err := expandMacros(map[string]string{"PK": k.PK, "SK": k.SK}, keyInput{Section: section, ID: id})
	if err != nil {
		return nil, err
	}
	if expanded["SK"] == metaSK {
		return nil, regerrors.NewValidationError("id", fmt.Sprintf("%q collides with the section marker key", id))
	}
	return buildKeyFromExpanded(expanded)
}

func (k KeyTemplates) marker(section string) (map[string]types.AttributeValue, error) {
	pk, err := k.partition(section)
	if err != nil {
		return nil, err
	}
	return buildKeyFromExpanded(map[string]string{"PK": pk, "SK": metaSK})
}

// buildKeyFromExpanded builds a DynamoDB key from the expanded templates.
func buildKeyFromExpanded(expanded map[string]string) (map[string]types.AttributeValue, error) {
	pk, okPK := expanded["PK"]
	sk, okSK := expanded["SK"]

	if !okPK || !okSK || pk == "" || sk == "" {
		return nil, fmt.Errorf("expanded key templates missing valid PK or SK")
	}

	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}, nil
}
