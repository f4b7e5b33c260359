package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid marks an unrecognized lexeme.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident represents an identifier token.
	Ident
	// IntLit is a decimal integer literal.
	IntLit
	// FloatLit is a decimal floating point literal.
	FloatLit
	// StringLit is a double-quoted string literal.
	StringLit

	KwFn       // fn
	KwStruct   // struct
	KwTrait    // trait
	KwImpl     // impl
	KwFor      // for
	KwImport   // import
	KwPub      // pub
	KwInternal // internal
	KwLet      // let
	KwReturn   // return
	KwIf       // if
	KwElse     // else
	KwWhile    // while
	KwNew      // new
	KwTrue     // true
	KwFalse    // false
	KwSelf     // self

	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
	LBracket  // [
	RBracket  // ]
	Comma     // ,
	Semicolon // ;
	Colon     // :
	ColonColon
	Dot
	Arrow // ->
	Hash  // #
	Assign
	Plus
	Minus
	Star
	Slash
	Percent
	Bang
	EqEq
	BangEq
	Lt
	LtEq
	Gt
	GtEq
	Shl
	Shr
	Amp
	Pipe
	Caret
	AndAnd
	OrOr

	kindCount
)

var kindNames = [kindCount]string{
	Invalid:    "invalid",
	EOF:        "end of file",
	Ident:      "identifier",
	IntLit:     "integer literal",
	FloatLit:   "float literal",
	StringLit:  "string literal",
	KwFn:       "fn",
	KwStruct:   "struct",
	KwTrait:    "trait",
	KwImpl:     "impl",
	KwFor:      "for",
	KwImport:   "import",
	KwPub:      "pub",
	KwInternal: "internal",
	KwLet:      "let",
	KwReturn:   "return",
	KwIf:       "if",
	KwElse:     "else",
	KwWhile:    "while",
	KwNew:      "new",
	KwTrue:     "true",
	KwFalse:    "false",
	KwSelf:     "self",
	LParen:     "(",
	RParen:     ")",
	LBrace:     "{",
	RBrace:     "}",
	LBracket:   "[",
	RBracket:   "]",
	Comma:      ",",
	Semicolon:  ";",
	Colon:      ":",
	ColonColon: "::",
	Dot:        ".",
	Arrow:      "->",
	Hash:       "#",
	Assign:     "=",
	Plus:       "+",
	Minus:      "-",
	Star:       "*",
	Slash:      "/",
	Percent:    "%",
	Bang:       "!",
	EqEq:       "==",
	BangEq:     "!=",
	Lt:         "<",
	LtEq:       "<=",
	Gt:         ">",
	GtEq:       ">=",
	Shl:        "<<",
	Shr:        ">>",
	Amp:        "&",
	Pipe:       "|",
	Caret:      "^",
	AndAnd:     "&&",
	OrOr:       "||",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "unknown"
}

var keywords = map[string]Kind{
	"fn":       KwFn,
	"struct":   KwStruct,
	"trait":    KwTrait,
	"impl":     KwImpl,
	"for":      KwFor,
	"import":   KwImport,
	"pub":      KwPub,
	"internal": KwInternal,
	"let":      KwLet,
	"return":   KwReturn,
	"if":       KwIf,
	"else":     KwElse,
	"while":    KwWhile,
	"new":      KwNew,
	"true":     KwTrue,
	"false":    KwFalse,
	"self":     KwSelf,
}

// LookupKeyword возвращает тип и bool если это ключевое слово.
// Ключевые слова регистрозависимые.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}

// IsTopLevelKeyword reports whether k can start a top-level item.
// The parser resynchronizes on these after a syntax error.
func (k Kind) IsTopLevelKeyword() bool {
	switch k {
	case KwFn, KwStruct, KwTrait, KwImpl, KwImport, KwPub, KwInternal, Hash:
		return true
	default:
		return false
	}
}
