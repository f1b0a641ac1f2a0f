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
	LexUnterminatedBlockComment Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedChar         Code = 1003

	// Препроцессор
	PPInfo                    Code = 2000
	PPUserError               Code = 2001
	PPUserWarning             Code = 2002
	PPIncludeNotFound         Code = 2003
	PPIncludeTooDeep          Code = 2004
	PPIncludeExpectsName      Code = 2005
	PPUnterminatedConditional Code = 2006
	PPElseAfterElse           Code = 2007
	PPElifAfterElse           Code = 2008
	PPEndifWithoutIf          Code = 2009
	PPElseWithoutIf           Code = 2010
	PPElifWithoutIf           Code = 2011
	PPInvalidDirective        Code = 2012
	PPMacroNameMissing        Code = 2013
	PPMacroNameNotIdent       Code = 2014
	PPDefinedAsMacro          Code = 2015
	PPMacroRedefined          Code = 2016
	PPInvalidExpression       Code = 2017
	PPUnterminatedInvocation  Code = 2018
	PPBadParameterList        Code = 2019
	PPExtraTokens             Code = 2020
	PPHashNotFollowedByParam  Code = 2021
	PPMacroArgCount           Code = 2022
	PPInvalidPaste            Code = 2023

	// Синтаксические
	SynInfo       Code = 3000
	SynUnexpected Code = 3001
	SynExpected   Code = 3002

	// Семантические
	SemaInfo                Code = 4000
	SemaMissingReturn       Code = 4001
	SemaMissingReturnPaths  Code = 4002
	SemaUndeclaredIdent     Code = 4003
	SemaImplicitDeclaration Code = 4004

	// I/O
	IOLoadFileError Code = 5001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                 "Unknown error",
		LexInfo:                     "Lexical information",
		LexUnterminatedBlockComment: "Unterminated block comment",
		LexUnterminatedString:       "Unterminated string literal",
		LexUnterminatedChar:         "Unterminated character constant",
		PPInfo:                      "Preprocessor information",
		PPUserError:                 "#error directive",
		PPUserWarning:               "#warning directive",
		PPIncludeNotFound:           "Included file not found",
		PPIncludeTooDeep:            "#include nested too deeply",
		PPIncludeExpectsName:        "#include expects a file name",
		PPUnterminatedConditional:   "Unterminated conditional directive",
		PPElseAfterElse:             "#else after #else",
		PPElifAfterElse:             "#elif after #else",
		PPEndifWithoutIf:            "#endif without #if",
		PPElseWithoutIf:             "#else without #if",
		PPElifWithoutIf:             "#elif without #if",
		PPInvalidDirective:          "Invalid preprocessing directive",
		PPMacroNameMissing:          "Macro name missing",
		PPMacroNameNotIdent:         "Macro name must be an identifier",
		PPDefinedAsMacro:            "'defined' cannot be used as a macro name",
		PPMacroRedefined:            "Macro redefined",
		PPInvalidExpression:         "Invalid preprocessor expression",
		PPUnterminatedInvocation:    "Unterminated function-like macro invocation",
		PPBadParameterList:          "Invalid macro parameter list",
		PPExtraTokens:               "Extra tokens at end of directive",
		PPHashNotFollowedByParam:    "'#' is not followed by a macro parameter",
		PPMacroArgCount:             "Wrong number of macro arguments",
		PPInvalidPaste:              "Invalid token paste",
		SynInfo:                     "Syntax information",
		SynUnexpected:               "Unexpected token",
		SynExpected:                 "Expected token",
		SemaInfo:                    "Semantic information",
		SemaMissingReturn:           "Missing return in non-void function",
		SemaMissingReturnPaths:      "Missing return on some control paths",
		SemaUndeclaredIdent:         "Use of undeclared identifier",
		SemaImplicitDeclaration:     "Implicit function declaration",
		IOLoadFileError:             "I/O load file error",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("PP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
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
