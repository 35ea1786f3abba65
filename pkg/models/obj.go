package models

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// Errors wrapped by ParseError.
var (
	ErrMissingField = errors.New("missing numeric field")
	ErrZeroIndex    = errors.New("face index must be 1 or greater")
	ErrShortFace    = errors.New("face needs at least three vertices")
)

// ParseError reports a malformed line in mesh source text.
type ParseError struct {
	Line int    // 1-based line number
	Text string // The offending line
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse mesh: line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Loader reads meshes relative to an explicit base directory.
type Loader struct {
	BaseDir string
	Logger  *zap.Logger
}

// NewLoader creates a loader. A nil logger discards output.
func NewLoader(baseDir string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{BaseDir: baseDir, Logger: logger}
}

// Resolve joins a relative name onto BaseDir.
func (l *Loader) Resolve(name string) string {
	if filepath.IsAbs(name) || l.BaseDir == "" {
		return name
	}
	return filepath.Join(l.BaseDir, name)
}

// Load reads an OBJ file.
func (l *Loader) Load(name string) (*Mesh, error) {
	path := l.Resolve(name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mesh: %w", err)
	}
	defer f.Close()

	mesh, err := l.Decode(f, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	l.Logger.Info("mesh loaded",
		zap.String("path", path),
		zap.Int("positions", mesh.VertexCount()),
		zap.Int("texcoords", len(mesh.TexCoords)),
		zap.Int("faces", mesh.TriangleCount()),
	)
	return mesh, nil
}

// Parse parses mesh source text.
func Parse(src string) (*Mesh, error) {
	return Decode(strings.NewReader(src))
}

// Decode parses mesh text from r without logging.
func Decode(r io.Reader) (*Mesh, error) {
	return NewLoader("", nil).Decode(r, "")
}

// Decode parses mesh text from r. Any malformed line aborts the load and
// no partial mesh is returned.
func (l *Loader) Decode(r io.Reader, name string) (*Mesh, error) {
	mesh := NewMesh(name)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if strings.HasPrefix(fields[0], "#") {
			text := strings.TrimPrefix(strings.TrimSpace(line), "#")
			l.Logger.Debug("mesh comment", zap.String("text", strings.TrimSpace(text)))
			continue
		}

		var err error
		switch fields[0] {
		case "v":
			var v math3d.Vec4
			if v, err = parseVec(fields[1:]); err == nil {
				mesh.Positions = append(mesh.Positions, v)
			}
		case "vt":
			var v math3d.Vec4
			if v, err = parseVec(fields[1:]); err == nil {
				mesh.TexCoords = append(mesh.TexCoords, v)
			}
		case "vn":
			var v math3d.Vec4
			if v, err = parseVec(fields[1:]); err == nil {
				mesh.Normals = append(mesh.Normals, v)
			}
		case "f":
			var f Face
			var extra int
			if f, extra, err = parseFace(fields[1:]); err == nil {
				mesh.Faces = append(mesh.Faces, f)
				if extra > 0 {
					l.Logger.Debug("face has more than three vertices, extra corners dropped",
						zap.Int("line", lineNo), zap.Int("dropped", extra))
				}
			}
		}
		if err != nil {
			return nil, &ParseError{Line: lineNo, Text: line, Err: err}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read mesh: %w", err)
	}

	return mesh, nil
}

// parseVec reads three floats; W is always 1.
func parseVec(fields []string) (math3d.Vec4, error) {
	if len(fields) < 3 {
		return math3d.Vec4{}, ErrMissingField
	}
	var xyz [3]float64
	for i := range 3 {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return math3d.Vec4{}, err
		}
		xyz[i] = f
	}
	return math3d.Point(xyz[0], xyz[1], xyz[2]), nil
}

// parseFace reads p[/t[/n]] references. Every reference is validated but
// only the first three form the triangle; the count of dropped corners is
// returned.
func parseFace(refs []string) (Face, int, error) {
	var f Face
	if len(refs) < 3 {
		return f, 0, ErrShortFace
	}

	for i, ref := range refs {
		c, err := parseCorner(ref)
		if err != nil {
			return f, 0, err
		}
		if i < 3 {
			f.Corners[i] = c
		}
	}
	return f, len(refs) - 3, nil
}

// parseCorner converts one 1-based reference to 0-based indices. Empty
// texcoord or normal fields (as in "3//7") are Absent; the position is
// required.
func parseCorner(ref string) (Corner, error) {
	c := Corner{Position: Absent, TexCoord: Absent, Normal: Absent}
	parts := strings.Split(ref, "/")
	if len(parts) > 3 {
		return c, fmt.Errorf("vertex reference %q has more than three fields", ref)
	}

	targets := [3]*int{&c.Position, &c.TexCoord, &c.Normal}
	for i, p := range parts {
		if p == "" {
			if i == 0 {
				return c, ErrMissingField
			}
			continue
		}
		n, err := strconv.ParseUint(p, 10, 0)
		if err != nil {
			return c, err
		}
		if n == 0 {
			return c, ErrZeroIndex
		}
		*targets[i] = int(n) - 1
	}
	return c, nil
}
