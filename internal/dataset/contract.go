package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// SizeContract is the convention a reference source uses to declare the input
// length it was written for.
//
// A line carrying Marker (usually in a trailing comment) has its first integer
// literal replaced with the dataset size:
//
//	int n = 97; // crossbench:input-size
//
// Sources without the marker fall back to the Literal statement, which is
// replaced by Template formatted with the size.
type SizeContract struct {
	Marker   string
	Literal  string
	Template string
}

var firstInteger = regexp.MustCompile(`\b\d+\b`)

// Parameterize rewrites src so it is sized for n tokens. found reports whether
// either form of the contract matched; when false src is returned unchanged.
func (c SizeContract) Parameterize(src string, n int) (out string, found bool) {
	if marker := strings.TrimSpace(c.Marker); marker != "" {
		lines := strings.SplitAfter(src, "\n")
		for i, line := range lines {
			idx := strings.Index(line, marker)
			if idx < 0 {
				continue
			}
			code := line[:idx]
			loc := firstInteger.FindStringIndex(code)
			if loc == nil {
				continue
			}
			lines[i] = code[:loc[0]] + strconv.Itoa(n) + code[loc[1]:] + line[idx:]
			return strings.Join(lines, ""), true
		}
	}

	literal := strings.TrimSpace(c.Literal)
	if literal == "" || !strings.Contains(src, literal) {
		return src, false
	}
	template := c.Template
	if !strings.Contains(template, "%d") {
		template = "%d"
	}
	return strings.Replace(src, literal, fmt.Sprintf(template, n), 1), true
}

// WriteParameterized writes the sized copy of source to a hidden file in the
// same directory, so relative includes keep resolving. cleanup removes it.
func (c SizeContract) WriteParameterized(source string, n int) (path string, found bool, cleanup func(), err error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return "", false, nil, fmt.Errorf("read source %q: %w", source, err)
	}
	out, found := c.Parameterize(string(data), n)

	ext := filepath.Ext(source)
	base := strings.TrimSuffix(filepath.Base(source), ext)
	tmp, err := os.CreateTemp(filepath.Dir(source), "."+base+"-sized-*"+ext)
	if err != nil {
		return "", false, nil, fmt.Errorf("create sized source: %w", err)
	}
	if _, err := tmp.WriteString(out); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", false, nil, fmt.Errorf("write sized source: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", false, nil, fmt.Errorf("close sized source: %w", err)
	}
	name := tmp.Name()
	return name, found, func() { _ = os.Remove(name) }, nil
}
