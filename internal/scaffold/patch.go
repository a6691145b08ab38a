package scaffold

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/tailscale/hujson"
)

// Inserter amends file content that does not yet carry a patch. Insert
// returns the content unchanged when the amendment is already structurally
// present, and an error when the content cannot be understood.
type Inserter interface {
	Insert(content []byte) ([]byte, error)
	Describe() string
}

// PatchRule conditionally amends a previously written file. Target is
// relative to the branch root. When Marker occurs anywhere in the file the
// rule is considered applied and the file is left alone.
type PatchRule struct {
	Target string
	Marker string
	Insert Inserter
}

func (r PatchRule) String() string {
	return fmt.Sprintf("%s in %s", r.Insert.Describe(), r.Target)
}

// ApplyPatch applies rule to the file under root and reports whether the file
// changed. A missing or unparseable file yields KindPatchParse; a failed
// write-back yields KindPatchWrite. In both cases the file is untouched.
func ApplyPatch(fsys afero.Fs, root string, rule PatchRule) (bool, error) {
	if rule.Insert == nil {
		return false, newError(KindPatchParse, rule.Target, nil, "patch rule for %s has no insertion strategy", rule.Target)
	}

	p, err := Compose(root, rule.Target)
	if err != nil {
		return false, newError(KindPatchParse, rule.Target, err, "composing patch target")
	}

	info, err := fsys.Stat(p)
	if err != nil {
		return false, newError(KindPatchParse, p, err, "reading %s", p)
	}
	if info.IsDir() {
		return false, newError(KindPatchParse, p, nil, "%s is a directory", p)
	}

	content, err := afero.ReadFile(fsys, p)
	if err != nil {
		return false, newError(KindPatchParse, p, err, "reading %s", p)
	}

	if rule.Marker != "" && bytes.Contains(content, []byte(rule.Marker)) {
		return false, nil
	}

	amended, err := rule.Insert.Insert(content)
	if err != nil {
		return false, newError(KindPatchParse, p, err, "parsing %s", p)
	}
	if bytes.Equal(amended, content) {
		return false, nil
	}

	if err := writeFileAtomic(fsys, p, amended, info.Mode().Perm()); err != nil {
		return false, newError(KindPatchWrite, p, err, "writing patched %s", p)
	}
	return true, nil
}

// JSONKey adds Key with Value at the top level of a JSON object document.
// The document is parsed, amended and re-serialized; comments and trailing
// commas in the input are tolerated.
type JSONKey struct {
	Key   string
	Value interface{}
}

// Describe names the key being added.
func (j JSONKey) Describe() string {
	return fmt.Sprintf("top-level key %q", j.Key)
}

// Insert implements Inserter.
func (j JSONKey) Insert(content []byte) ([]byte, error) {
	if j.Key == "" {
		return nil, errors.New("empty JSON key")
	}

	v, err := hujson.Parse(content)
	if err != nil {
		return nil, err
	}
	if v.Value.Kind() != '{' {
		return nil, fmt.Errorf("top-level value is not an object")
	}

	ptr := "/" + escapePointer(j.Key)
	if v.Find(ptr) != nil {
		return content, nil
	}

	value, err := encodeValue(j.Value)
	if err != nil {
		return nil, fmt.Errorf("encoding value for %q: %w", j.Key, err)
	}
	op, err := encodeValue([]patchOp{{Op: "add", Path: ptr, Value: value}})
	if err != nil {
		return nil, err
	}

	if err := v.Patch(op); err != nil {
		return nil, fmt.Errorf("adding %q: %w", j.Key, err)
	}

	// Strict JSON stays strict JSON in its original indentation; documents
	// that already use comments or trailing commas keep them.
	var out []byte
	if json.Valid(content) {
		v.Standardize()
		var buf bytes.Buffer
		if err := json.Indent(&buf, v.Pack(), "", detectIndent(content)); err != nil {
			return nil, fmt.Errorf("re-indenting: %w", err)
		}
		out = buf.Bytes()
	} else {
		v.Format()
		out = v.Pack()
	}

	if !bytes.HasSuffix(out, []byte("\n")) {
		out = append(out, '\n')
	}
	return out, nil
}

// encodeValue marshals v without HTML escaping, so ">0.2%" is written as is
// rather than as "\u003e0.2%".
func encodeValue(v interface{}) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// detectIndent returns the indentation of the first indented line, or two
// spaces.
func detectIndent(content []byte) string {
	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed != "" && len(trimmed) < len(line) {
			return line[:len(line)-len(trimmed)]
		}
	}
	return "  "
}

// AppendLine ensures Line appears as a whole line in a line-oriented file
// such as .gitignore.
type AppendLine struct {
	Line string
}

// Describe names the line being added.
func (a AppendLine) Describe() string {
	return fmt.Sprintf("line %q", a.Line)
}

// Insert implements Inserter.
func (a AppendLine) Insert(content []byte) ([]byte, error) {
	line := strings.TrimSpace(a.Line)
	if line == "" {
		return nil, errors.New("empty line")
	}
	if bytes.IndexByte(content, 0) >= 0 {
		return nil, errors.New("file is not text")
	}

	for _, l := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(l) == line {
			return content, nil
		}
	}

	out := make([]byte, 0, len(content)+len(line)+2)
	out = append(out, content...)
	if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
		out = append(out, '\n')
	}
	out = append(out, line...)
	out = append(out, '\n')
	return out, nil
}

// escapePointer escapes a single JSON Pointer reference token (RFC 6901).
func escapePointer(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}

// patchOp is one RFC 6902 operation.
type patchOp struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}
