package frontend

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"naggy/internal/cexpr"
	"naggy/internal/diag"
	"naggy/internal/directive"
	"naggy/internal/lexer"
	"naggy/internal/macro"
	"naggy/internal/overlay"
	"naggy/internal/source"
	"naggy/internal/token"
)

// condFrame is one open #if group.
type condFrame struct {
	parentActive bool
	taken        bool
	active       bool
	sawElse      bool
	open         token.Token
}

type condStack []condFrame

func (s condStack) active() bool {
	if len(s) == 0 {
		return true
	}
	return s[len(s)-1].active
}

func (s condStack) parentActive() bool {
	if len(s) == 0 {
		return true
	}
	return s[len(s)-1].parentActive
}

// presumed is the #line state of one file.
type presumed struct {
	delta int
	file  string
}

type preprocessor struct {
	ctx    context.Context
	unit   *Unit
	fs     overlay.FS
	rep    diag.Reporter
	macros *macro.Table
	exp    *macro.Expander
	out    *output
	stream *directive.Stream
	cpp    bool

	once     map[string]bool
	presumed map[source.FileID]presumed
	// include is the stream index of the main-file #include being
	// processed, or -1.
	include int
	counter int
	now     time.Time
}

func newPreprocessor(ctx context.Context, u *Unit, fs overlay.FS, rep diag.Reporter) *preprocessor {
	p := &preprocessor{
		ctx:      ctx,
		unit:     u,
		fs:       fs,
		rep:      rep,
		macros:   u.Predefined.Clone(),
		out:      newOutput(u.Files),
		stream:   directive.NewStream(),
		cpp:      u.Options.Dialect.CPlusPlus(),
		once:     make(map[string]bool),
		presumed: make(map[source.FileID]presumed),
		include:  -1,
		now:      time.Now(),
	}
	p.exp = &macro.Expander{
		Table:     p.macros,
		Builtin:   p.builtin,
		OnError:   p.expandError,
		CPlusPlus: p.cpp,
	}
	return p
}

func (p *preprocessor) run() error {
	main := p.unit.MainFile()
	p.out.enter(main.ID)
	if err := p.file(main, 0); err != nil {
		return err
	}
	p.out.advanceTo(main.ID, main.LineCount())
	p.unit.Output = p.out.buf
	p.unit.Lines = p.out.lines
	p.unit.Directives = p.stream.All()
	p.unit.Macros = p.macros
	return nil
}

// lexCollector holds lexer diagnostics until it is known whether their
// line was preprocessed.
type lexCollector struct {
	items []diag.Diagnostic
}

func (c *lexCollector) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	c.items = append(c.items, diag.Diagnostic{Severity: sev, Code: code, Message: msg, Primary: primary, Notes: notes})
}

func splitLines(toks []token.Token) [][]token.Token {
	var lines [][]token.Token
	start := 0
	for i, t := range toks {
		switch t.Kind {
		case token.Newline:
			lines = append(lines, toks[start:i])
			start = i + 1
		case token.EOF:
			if start < i {
				lines = append(lines, toks[start:i])
			}
		}
	}
	return lines
}

func isDirectiveLine(ln []token.Token) bool {
	return len(ln) > 0 && ln[0].Kind == token.Hash
}

func (p *preprocessor) file(f *source.File, depth int) error {
	lexDiags := &lexCollector{}
	toks := lexer.Tokenize(f, lexer.Options{Reporter: lexDiags, CPlusPlus: p.cpp})
	lines := splitLines(toks)
	active := make(map[int]bool)
	var conds condStack

	for i := 0; i < len(lines); i++ {
		if i&255 == 0 {
			if err := p.ctx.Err(); err != nil {
				return err
			}
		}
		ln := lines[i]
		if len(ln) == 0 {
			continue
		}
		if isDirectiveLine(ln) {
			if conds.active() || conds.parentActive() {
				active[p.lineOf(ln[0])] = true
			}
			if err := p.directive(f, ln, &conds, depth); err != nil {
				return err
			}
			continue
		}
		if !conds.active() {
			continue
		}
		chunk := ln
		for p.exp.NeedsMore(chunk) && i+1 < len(lines) && !isDirectiveLine(lines[i+1]) {
			i++
			chunk = append(chunk[:len(chunk):len(chunk)], lines[i]...)
		}
		for _, t := range chunk {
			active[p.lineOf(t)] = true
		}
		p.out.emit(p.exp.Expand(chunk))
	}

	for _, fr := range conds {
		diag.ReportError(p.rep, diag.PPUnterminatedConditional, fr.open.Span, "unterminated conditional directive").Emit()
	}
	for _, d := range lexDiags.items {
		line := int(f.Position(d.Primary.Start).Line)
		if d.Code == diag.LexUnterminatedBlockComment || active[line] {
			p.rep.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
		}
	}
	return nil
}

func (p *preprocessor) directive(f *source.File, ln []token.Token, conds *condStack, depth int) error {
	if len(ln) == 1 {
		return nil
	}
	hash, nameTok, rest := ln[0], ln[1], ln[2:]
	last := ln[len(ln)-1]
	main := f.ID == p.unit.Main

	rec := directive.Directive{
		Kind:    directive.Other,
		Line:    p.lineOf(hash),
		EndLine: continuedLine(f, p.lineOf(last)),
		Span:    hash.Span.Cover(last.Span),
		Text:    token.Join(rest),
		Active:  conds.active(),
	}
	if nameTok.Kind == token.Ident {
		rec.Kind = directive.Lookup(nameTok.Text)
	}
	recorded := -1
	record := func() int {
		if main && recorded < 0 {
			recorded = p.stream.Add(rec)
		}
		return recorded
	}
	defer record()

	switch rec.Kind {
	case directive.If, directive.Ifdef, directive.Ifndef:
		fr := condFrame{parentActive: conds.active(), open: hash}
		rec.Active = fr.parentActive
		if fr.parentActive {
			var v bool
			if rec.Kind == directive.If {
				v = p.eval(f, nameTok, rest)
			} else {
				name, ok := p.macroName(nameTok, rest)
				rec.Name = name
				v = ok && p.macros.Defined(name)
				if rec.Kind == directive.Ifndef {
					v = ok && !v
				}
				p.extraTokens(nameTok, rest, 1)
			}
			fr.active, fr.taken = v, v
		} else if rec.Kind != directive.If && len(rest) > 0 && rest[0].Kind == token.Ident {
			rec.Name = rest[0].Text
		}
		*conds = append(*conds, fr)
		return nil

	case directive.Elif:
		if len(*conds) == 0 {
			diag.ReportError(p.rep, diag.PPElifWithoutIf, nameTok.Span, "#elif without #if").Emit()
			return nil
		}
		top := &(*conds)[len(*conds)-1]
		rec.Active = top.parentActive
		if top.sawElse && top.parentActive {
			diag.ReportError(p.rep, diag.PPElifAfterElse, nameTok.Span, "#elif after #else").Emit()
		}
		if top.parentActive && !top.taken {
			v := p.eval(f, nameTok, rest)
			top.active, top.taken = v, v
		} else {
			top.active = false
		}
		return nil

	case directive.Else:
		if len(*conds) == 0 {
			diag.ReportError(p.rep, diag.PPElseWithoutIf, nameTok.Span, "#else without #if").Emit()
			return nil
		}
		top := &(*conds)[len(*conds)-1]
		rec.Active = top.parentActive
		if top.parentActive {
			if top.sawElse {
				diag.ReportError(p.rep, diag.PPElseAfterElse, nameTok.Span, "#else after #else").Emit()
			}
			p.extraTokens(nameTok, rest, 0)
		}
		top.active = top.parentActive && !top.taken
		top.taken = true
		top.sawElse = true
		return nil

	case directive.Endif:
		if len(*conds) == 0 {
			diag.ReportError(p.rep, diag.PPEndifWithoutIf, nameTok.Span, "#endif without #if").Emit()
			return nil
		}
		top := (*conds)[len(*conds)-1]
		rec.Active = top.parentActive
		if top.parentActive {
			p.extraTokens(nameTok, rest, 0)
		}
		*conds = (*conds)[:len(*conds)-1]
		return nil
	}

	if !conds.active() {
		return nil
	}

	switch rec.Kind {
	case directive.Define:
		m, err := macro.ParseDefine(rest, f.Path, rec.Line, nameTok.Span)
		if err != nil {
			p.defineError(nameTok, err)
			return nil
		}
		rec.Name, rec.Macro = m.Name, m
		if prev := p.macros.Define(m); prev != nil && !prev.Equivalent(m) {
			b := diag.ReportWarning(p.rep, diag.PPMacroRedefined, m.Span, fmt.Sprintf("'%s' macro redefined", m.Name))
			if !prev.Predefined {
				b.WithNote(prev.Span, "previous definition is here")
			}
			b.Emit()
		}
		p.effect(f, directive.Effect{Name: m.Name, Macro: m})

	case directive.Undef:
		name, ok := p.macroName(nameTok, rest)
		if !ok {
			return nil
		}
		rec.Name = name
		p.macros.Undef(name)
		p.effect(f, directive.Effect{Name: name})
		p.extraTokens(nameTok, rest, 1)

	case directive.Include:
		idx := record()
		return p.includeFile(f, nameTok, rest, p.lineOf(last), depth, idx)

	default:
		p.otherDirective(f, nameTok, rest, last)
	}
	return nil
}

func (p *preprocessor) otherDirective(f *source.File, nameTok token.Token, rest []token.Token, last token.Token) {
	switch nameTok.Text {
	case "error":
		diag.ReportError(p.rep, diag.PPUserError, nameTok.Span, p.rawText(f, rest)).Emit()
	case "warning":
		diag.ReportWarning(p.rep, diag.PPUserWarning, nameTok.Span, p.rawText(f, rest)).Emit()
	case "line":
		p.lineDirective(f, nameTok, rest, last)
	case "pragma":
		if len(rest) > 0 && rest[0].IsIdentNamed("once") {
			if key, ok := overlay.Key(f.Path); ok {
				p.once[key] = true
			}
		}
	case "ident", "sccs", "assert", "unassert":
	default:
		if nameTok.Kind == token.Number {
			// GNU line marker: # 12 "file.c"
			return
		}
		diag.ReportError(p.rep, diag.PPInvalidDirective, nameTok.Span, "invalid preprocessing directive").Emit()
	}
}

func (p *preprocessor) includeFile(f *source.File, nameTok token.Token, rest []token.Token, endLine, depth, idx int) error {
	at := nameTok.Span
	if len(rest) > 0 {
		at = rest[0].Span
	}
	name, angled, ok := includeName(p.rawText(f, rest))
	if !ok && len(rest) > 0 && rest[0].Kind == token.Ident {
		name, angled, ok = includeName(token.Join(p.exp.Expand(rest)))
	}
	if !ok {
		diag.ReportError(p.rep, diag.PPIncludeExpectsName, at, `#include expects "FILENAME" or <FILENAME>`).Emit()
		return nil
	}
	path, found := findInclude(p.fs, filepath.Dir(f.Path), p.unit.Options.IncludeDirs, name, angled)
	if !found {
		diag.ReportFatal(p.rep, diag.PPIncludeNotFound, at, fmt.Sprintf("'%s' file not found", name)).Emit()
		return nil
	}
	if depth+1 >= maxIncludeDepth {
		diag.ReportError(p.rep, diag.PPIncludeTooDeep, at, "#include nested too deeply").Emit()
		return nil
	}
	if key, ok := overlay.Key(path); ok && p.once[key] {
		return nil
	}
	data, err := p.fs.ReadFile(path)
	if err != nil {
		diag.ReportFatal(p.rep, diag.PPIncludeNotFound, at, fmt.Sprintf("cannot open file '%s': %v", name, err)).Emit()
		return nil
	}
	hdr := p.unit.Files.Get(p.unit.Files.AddRaw(path, data, 0))

	p.out.advanceTo(f.ID, endLine)
	p.out.enter(hdr.ID)
	saved := p.include
	if f.ID == p.unit.Main {
		p.include = idx
	}
	err = p.file(hdr, depth+1)
	p.include = saved
	p.out.advanceTo(hdr.ID, hdr.LineCount())
	p.out.resume(Origin{File: f.ID, Line: endLine})
	return err
}

func (p *preprocessor) lineDirective(f *source.File, nameTok token.Token, rest []token.Token, last token.Token) {
	toks := p.exp.Expand(rest)
	n := 0
	if len(toks) > 0 && toks[0].Kind == token.Number {
		n, _ = strconv.Atoi(toks[0].Text)
	}
	if n <= 0 {
		diag.ReportError(p.rep, diag.PPInvalidDirective, nameTok.Span, "#line directive requires a positive integer argument").Emit()
		return
	}
	info := p.presumed[f.ID]
	info.delta = n - (p.lineOf(last) + 1)
	if len(toks) > 1 && toks[1].Kind == token.StringLit {
		info.file = strings.Trim(toks[1].Text, `"`)
	}
	p.presumed[f.ID] = info
}

func (p *preprocessor) eval(f *source.File, nameTok token.Token, rest []token.Token) bool {
	hasInclude := func(name string, angled bool) bool {
		_, ok := findInclude(p.fs, filepath.Dir(f.Path), p.unit.Options.IncludeDirs, name, angled)
		return ok
	}
	opts := cexpr.Options{CPlusPlus: p.cpp, HasInclude: hasInclude}
	v, err := cexpr.Eval(rest, p.exp, opts, nameTok.Span)
	if err != nil {
		sp := nameTok.Span
		var ce *cexpr.Error
		if errors.As(err, &ce) && ce.Span.End > 0 {
			sp = ce.Span
		}
		diag.ReportError(p.rep, diag.PPInvalidExpression, sp, err.Error()).Emit()
		return false
	}
	return v.IsTrue()
}

func (p *preprocessor) macroName(nameTok token.Token, rest []token.Token) (string, bool) {
	if len(rest) == 0 {
		diag.ReportError(p.rep, diag.PPMacroNameMissing, nameTok.Span, "macro name missing").Emit()
		return "", false
	}
	if rest[0].Kind != token.Ident {
		diag.ReportError(p.rep, diag.PPMacroNameNotIdent, rest[0].Span, "macro name must be an identifier").Emit()
		return "", false
	}
	if rest[0].Text == "defined" {
		diag.ReportError(p.rep, diag.PPDefinedAsMacro, rest[0].Span, "'defined' cannot be used as a macro name").Emit()
		return "", false
	}
	return rest[0].Text, true
}

func (p *preprocessor) extraTokens(nameTok token.Token, rest []token.Token, want int) {
	if len(rest) <= want {
		return
	}
	msg := fmt.Sprintf("extra tokens at end of #%s directive", nameTok.Text)
	diag.ReportWarning(p.rep, diag.PPExtraTokens, rest[want].Span, msg).Emit()
}

func (p *preprocessor) defineError(nameTok token.Token, err error) {
	var de *macro.DefineError
	if errors.As(err, &de) {
		diag.ReportError(p.rep, de.Code, de.Span, de.Msg).Emit()
		return
	}
	diag.ReportError(p.rep, diag.PPInvalidDirective, nameTok.Span, err.Error()).Emit()
}

func (p *preprocessor) expandError(sp source.Span, msg string) {
	code := diag.PPMacroArgCount
	switch {
	case strings.HasPrefix(msg, "unterminated"):
		code = diag.PPUnterminatedInvocation
	case strings.HasPrefix(msg, "pasting"):
		code = diag.PPInvalidPaste
	}
	diag.ReportError(p.rep, code, sp, msg).Emit()
}

// effect records a macro change made by a header on the #include of the
// main file that pulled it in.
func (p *preprocessor) effect(f *source.File, e directive.Effect) {
	if f.ID != p.unit.Main && p.include >= 0 {
		p.stream.AddEffect(p.include, e)
	}
}

func continuedLine(f *source.File, line int) int {
	for line < f.LineCount() && strings.HasSuffix(strings.TrimRight(f.GetLine(uint32(line)), " \t"), "\\") {
		line++
	}
	return line
}

func (p *preprocessor) lineOf(t token.Token) int {
	return int(p.unit.Files.Get(t.Span.File).Position(t.Span.Start).Line)
}

func (p *preprocessor) presumedLine(at token.Token) int {
	return p.lineOf(at) + p.presumed[at.Span.File].delta
}

func (p *preprocessor) presumedFile(at token.Token) string {
	if name := p.presumed[at.Span.File].file; name != "" {
		return name
	}
	return p.unit.Files.Get(at.Span.File).Path
}

func (p *preprocessor) rawText(f *source.File, toks []token.Token) string {
	if len(toks) == 0 {
		return ""
	}
	s := string(f.Content[toks[0].Span.Start:toks[len(toks)-1].Span.End])
	return strings.TrimSpace(strings.ReplaceAll(s, "\\\n", ""))
}
