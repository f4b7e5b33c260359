package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Лексические
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004

	// Парсерные
	SynInfo               Code = 2000
	SynUnexpectedToken    Code = 2001
	SynExpectIdentifier   Code = 2002
	SynExpectType         Code = 2003
	SynExpectExpression   Code = 2004
	SynExpectSemicolon    Code = 2005
	SynUnclosedDelimiter  Code = 2006
	SynBadAttribute       Code = 2007
	SynUnknownAttribute   Code = 2008
	SynModifierNotAllowed Code = 2009
	SynGenericMethod      Code = 2010

	// Семантические
	SemaInfo                  Code = 3000
	SemaDuplicateDefinition   Code = 3001
	SemaUnresolvedName        Code = 3002
	SemaAmbiguousImpl         Code = 3003
	SemaUnsatisfiedBound      Code = 3004
	SemaGenericRecursionLimit Code = 3005
	SemaTypeMismatch          Code = 3006
	SemaArityMismatch         Code = 3007
	SemaCannotInfer           Code = 3008
	SemaMissingReturn         Code = 3009
	SemaPrivateUnit           Code = 3010
	SemaPoisonedUnit          Code = 3011
	SemaDependencyFailed      Code = 3012
	SemaInvalidImpl           Code = 3013
	SemaResolutionStall       Code = 3014
	SemaEntryNotFound         Code = 3015
	SemaKindMismatch          Code = 3016
	SemaUnknownField          Code = 3017
	SemaDuplicateField        Code = 3018
	SemaInvalidInternal       Code = 3019
	SemaUnknownMethod         Code = 3020
	SemaInvalidEntry          Code = 3021

	IOLoadFileError Code = 4001

	BackendInfo  Code = 5000
	BackendError Code = 5001

	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                 "Unknown error",
		LexInfo:                     "Lexical information",
		LexUnknownChar:              "Unknown character",
		LexUnterminatedString:       "Unterminated string literal",
		LexUnterminatedBlockComment: "Unterminated block comment",
		LexBadNumber:                "Malformed number literal",
		SynInfo:                     "Syntax information",
		SynUnexpectedToken:          "Unexpected token",
		SynExpectIdentifier:         "Expected identifier",
		SynExpectType:               "Expected type",
		SynExpectExpression:         "Expected expression",
		SynExpectSemicolon:          "Expected semicolon",
		SynUnclosedDelimiter:        "Unclosed delimiter",
		SynBadAttribute:             "Malformed attribute",
		SynUnknownAttribute:         "Unknown attribute",
		SynModifierNotAllowed:       "Modifier not allowed here",
		SynGenericMethod:            "Generic methods are not supported",
		SemaInfo:                    "Semantic information",
		SemaDuplicateDefinition:     "Duplicate definition",
		SemaUnresolvedName:          "Unresolved name",
		SemaAmbiguousImpl:           "Ambiguous implementation",
		SemaUnsatisfiedBound:        "Unsatisfied trait bound",
		SemaGenericRecursionLimit:   "Generic recursion limit exceeded",
		SemaTypeMismatch:            "Type mismatch",
		SemaArityMismatch:           "Wrong number of arguments",
		SemaCannotInfer:             "Cannot infer type parameter",
		SemaMissingReturn:           "Missing return",
		SemaPrivateUnit:             "Unit is private to its namespace",
		SemaPoisonedUnit:            "Unit has syntax errors",
		SemaDependencyFailed:        "Dependency failed",
		SemaInvalidImpl:             "Invalid implementation",
		SemaResolutionStall:         "Resolution never completed",
		SemaEntryNotFound:           "Entry point not found",
		SemaKindMismatch:            "Wrong kind of unit",
		SemaUnknownField:            "Unknown field",
		SemaDuplicateField:          "Duplicate field",
		SemaInvalidInternal:         "Invalid internal function",
		SemaUnknownMethod:           "Unknown method",
		SemaInvalidEntry:            "Invalid entry point",
		IOLoadFileError:             "I/O load file error",
		BackendInfo:                 "Backend information",
		BackendError:                "Backend error",
		ObsInfo:                     "Observability information",
		ObsTimings:                  "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("BCK%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
