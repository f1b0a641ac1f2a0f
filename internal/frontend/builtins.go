package frontend

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"naggy/internal/compileargs"
	"naggy/internal/macro"
	"naggy/internal/token"
)

// dynamicMacros are answered by the preprocessor at each use. They are also
// entered into the table so that #ifdef and defined() see them.
var dynamicMacros = []string{"__FILE__", "__LINE__", "__COUNTER__", "__DATE__", "__TIME__", "__BASE_FILE__"}

// gnuSpellings maps GNU alternate keywords onto the spellings the grammar knows.
var gnuSpellings = [][2]string{
	{"__extension__", ""},
	{"__inline__", "inline"},
	{"__inline", "inline"},
	{"__restrict__", "restrict"},
	{"__restrict", "restrict"},
	{"__volatile__", "volatile"},
	{"__const", "const"},
	{"__signed__", "signed"},
	{"__signed", "signed"},
}

func builtinDefs(opts compileargs.Options) [][2]string {
	defs := [][2]string{
		{"__STDC__", "1"},
		{"__STDC_HOSTED__", "1"},
		{"__GNUC__", "4"},
		{"__GNUC_MINOR__", "2"},
		{"__GNUC_PATCHLEVEL__", "1"},
		{"__clang__", "1"},
		{"__clang_major__", "3"},
		{"__clang_minor__", "4"},
		{"__CHAR_BIT__", "8"},
		{"__ORDER_LITTLE_ENDIAN__", "1234"},
		{"__ORDER_BIG_ENDIAN__", "4321"},
		{"__BYTE_ORDER__", "__ORDER_LITTLE_ENDIAN__"},
		{"__NAGGY_FRONTEND__", "1"},
	}
	switch opts.Dialect {
	case compileargs.C99:
		defs = append(defs, [2]string{"__STDC_VERSION__", "199901L"})
	case compileargs.Cpp:
		defs = append(defs, [2]string{"__cplusplus", "199711L"})
	case compileargs.Cpp11:
		defs = append(defs, [2]string{"__cplusplus", "201103L"})
	}
	if !opts.Dialect.CPlusPlus() {
		defs = append(defs, gnuSpellings...)
	} else {
		defs = append(defs, gnuSpellings[0:1]...)
	}

	intSize := "4"
	switch opts.Arch {
	case compileargs.AVR:
		intSize = "2"
		defs = append(defs,
			[2]string{"__AVR__", "1"},
			[2]string{"__AVR", "1"},
			[2]string{"AVR", "1"},
			[2]string{"__AVR_ARCH__", "2"},
		)
	case compileargs.AVR32:
		defs = append(defs,
			[2]string{"__AVR32__", "1"},
			[2]string{"__avr32__", "1"},
			[2]string{"AVR32", "1"},
		)
	case compileargs.ARM:
		defs = append(defs,
			[2]string{"__arm__", "1"},
			[2]string{"__thumb__", "1"},
			[2]string{"__ARM_ARCH", "7"},
		)
	}
	defs = append(defs, [2]string{"__SIZEOF_INT__", intSize})
	return defs
}

func predefinedTable(opts compileargs.Options) (*macro.Table, []error) {
	t := macro.NewTable()
	for _, d := range builtinDefs(opts) {
		t.Define(macro.Builtin(d[0], d[1]))
	}
	for _, name := range dynamicMacros {
		t.Define(macro.Builtin(name, ""))
	}
	var errs []error
	for _, d := range opts.Defines {
		m, err := macro.ParseCommandLine(d, opts.Dialect.CPlusPlus())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		t.Define(m)
	}
	for _, name := range opts.Undefs {
		t.Undef(name)
	}
	return t, errs
}

func (p *preprocessor) builtin(name string, at token.Token) (token.Token, bool) {
	if !slices.Contains(dynamicMacros, name) || !p.isDynamic(name) {
		return token.Token{}, false
	}
	out := token.Token{Span: at.Span, Flags: at.Flags | token.FromMacro}
	switch name {
	case "__LINE__":
		out.Kind = token.Number
		out.Text = strconv.Itoa(p.presumedLine(at))
	case "__FILE__":
		out.Kind = token.StringLit
		out.Text = quote(p.presumedFile(at))
	case "__BASE_FILE__":
		out.Kind = token.StringLit
		out.Text = quote(p.unit.Path)
	case "__COUNTER__":
		out.Kind = token.Number
		out.Text = strconv.Itoa(p.counter)
		p.counter++
	case "__DATE__":
		out.Kind = token.StringLit
		out.Text = quote(p.now.Format("Jan _2 2006"))
	case "__TIME__":
		out.Kind = token.StringLit
		out.Text = quote(p.now.Format(time.TimeOnly))
	}
	return out, true
}

// isDynamic reports whether name still holds its builtin placeholder, i.e.
// was not redefined or undefined by the program.
func (p *preprocessor) isDynamic(name string) bool {
	m, ok := p.macros.Lookup(name)
	return ok && m.Predefined && len(m.Body) == 0 && m.File == "<built-in>"
}

func quote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
