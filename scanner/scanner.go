package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/zigbind/zigbind/errors"
)

// Fragment is one extracted Zig fragment with its declaration block.
type Fragment struct {
	// Zig is the normalized foreign source text.
	Zig string
	// Decls is the raw declaration block handed to the parser.
	Decls string
	// File is the host .go file the annotation lives in.
	File string
	// Line is the 1-based line of the declaration block's first line,
	// so parse diagnostics point into the host file.
	Line int
	// External is the referenced .zig path for the Include form, "" for
	// inline embeds.
	External string
}

// Tree is everything one scan discovered.
type Tree struct {
	Root      string
	Fragments []Fragment
	// CSources are auxiliary C files, compiled alongside in modular build
	// mode. Paths are relative to Root.
	CSources []string
}

// Empty reports whether the scan found nothing to build.
func (t *Tree) Empty() bool { return len(t.Fragments) == 0 }

const (
	embedMarker   = "zigbind.Embed("
	includeMarker = "zigbind.Include("
	// Separator is the fixed token dividing Zig source from declarations
	// inside an embed block.
	Separator = "---"
)

// skipDirs are tree entries never descended into.
var skipDirs = map[string]bool{
	".git":    true,
	"vendor":  true,
	"zig-out": true,
	"testdata": false, // testdata may hold scannable sources
}

// Scan walks root and extracts every annotation. A missing or empty root
// yields an empty tree, not an error.
func Scan(root string) (*Tree, error) {
	tree := &Tree{Root: root}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return tree, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if skipDirs[name] || (strings.HasPrefix(name, "_") && path != root) {
				return filepath.SkipDir
			}
			return nil
		}
		switch filepath.Ext(name) {
		case ".go":
			if strings.HasSuffix(name, "_test.go") {
				return nil
			}
			return tree.scanGoFile(path)
		case ".c":
			rel, rerr := filepath.Rel(root, path)
			if rerr != nil {
				return rerr
			}
			tree.CSources = append(tree.CSources, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errors.New(errors.PhaseScan, errors.KindIO).
			Cause(err).
			Detail("walking %s", root).
			Build()
	}

	Logger().Debug("scan complete",
		zap.String("root", root),
		zap.Int("fragments", len(tree.Fragments)),
		zap.Int("c_sources", len(tree.CSources)))
	return tree, nil
}

func (t *Tree) scanGoFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	src := string(data)

	for pos := 0; ; {
		embedIdx := strings.Index(src[pos:], embedMarker)
		includeIdx := strings.Index(src[pos:], includeMarker)
		if embedIdx < 0 && includeIdx < 0 {
			return nil
		}

		if includeIdx < 0 || (embedIdx >= 0 && embedIdx < includeIdx) {
			at := pos + embedIdx
			next, err := t.extractEmbed(path, src, at+len(embedMarker))
			if err != nil {
				return err
			}
			pos = next
		} else {
			at := pos + includeIdx
			next, err := t.extractInclude(path, src, at+len(includeMarker))
			if err != nil {
				return err
			}
			pos = next
		}
	}
}

// extractEmbed reads the raw-string literal starting at or after off and
// splits it on the separator line. Returns the offset just past the literal.
func (t *Tree) extractEmbed(path, src string, off int) (int, error) {
	lit, start, end, err := rawString(path, src, off)
	if err != nil {
		return 0, err
	}

	zig, decls, sepLine, ok := split(lit)
	if !ok {
		return 0, errors.New(errors.PhaseScan, errors.KindSyntax).
			Location(path, lineOf(src, start)).
			Detail("embed block has no %q separator line", Separator).
			Build()
	}

	t.Fragments = append(t.Fragments, Fragment{
		Zig:   Normalize(zig),
		Decls: decls,
		File:  path,
		Line:  lineOf(src, start) + sepLine + 1,
	})
	return end, nil
}

// extractInclude reads the quoted path argument and the raw-string
// declaration block, then loads the referenced .zig file relative to the
// host file's directory.
func (t *Tree) extractInclude(path, src string, off int) (int, error) {
	q := strings.IndexByte(src[off:], '"')
	if q < 0 {
		return 0, scanSyntax(path, lineOf(src, off), "include is missing its path argument")
	}
	pathStart := off + q + 1
	qEnd := strings.IndexByte(src[pathStart:], '"')
	if qEnd < 0 {
		return 0, scanSyntax(path, lineOf(src, off), "include path is unterminated")
	}
	zigPath := src[pathStart : pathStart+qEnd]

	lit, start, end, err := rawString(path, src, pathStart+qEnd+1)
	if err != nil {
		return 0, err
	}

	full := filepath.Join(filepath.Dir(path), zigPath)
	zig, rerr := os.ReadFile(full)
	if rerr != nil {
		return 0, errors.New(errors.PhaseScan, errors.KindIO).
			Location(path, lineOf(src, start)).
			Cause(rerr).
			Detail("included file %s", zigPath).
			Build()
	}

	t.Fragments = append(t.Fragments, Fragment{
		Zig:      Normalize(string(zig)),
		Decls:    lit,
		File:     path,
		Line:     lineOf(src, start),
		External: zigPath,
	})
	return end, nil
}

// rawString locates the next backquoted literal at or after off and returns
// its contents, content start offset, and the offset just past the closing
// backquote.
func rawString(path, src string, off int) (lit string, start, end int, err error) {
	open := strings.IndexByte(src[off:], '`')
	if open < 0 {
		return "", 0, 0, scanSyntax(path, lineOf(src, off), "annotation is missing its raw-string block")
	}
	start = off + open + 1
	closeIdx := strings.IndexByte(src[start:], '`')
	if closeIdx < 0 {
		return "", 0, 0, scanSyntax(path, lineOf(src, off), "raw-string block is unterminated")
	}
	return src[start : start+closeIdx], start, start + closeIdx + 1, nil
}

// split divides an embed literal at the first line equal to the separator
// token. sepLine is the 0-based line index of the separator inside lit.
func split(lit string) (zig, decls string, sepLine int, ok bool) {
	lines := strings.Split(lit, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == Separator {
			return strings.Join(lines[:i], "\n"),
				strings.Join(lines[i+1:], "\n"),
				i, true
		}
	}
	return "", "", 0, false
}

// lineOf returns the 1-based line number of byte offset off in src.
func lineOf(src string, off int) int {
	if off > len(src) {
		off = len(src)
	}
	return 1 + strings.Count(src[:off], "\n")
}

func scanSyntax(file string, line int, detail string, args ...any) error {
	return errors.New(errors.PhaseScan, errors.KindSyntax).
		Location(file, line).
		Detail(detail, args...).
		Build()
}
