package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Kind is the operation type of a trace line.
type Kind byte

const (
	Alloc   Kind = 'a'
	Realloc Kind = 'r'
	Free    Kind = 'f'
)

func (k Kind) String() string {
	switch k {
	case Alloc:
		return "alloc"
	case Realloc:
		return "realloc"
	case Free:
		return "free"
	}
	return fmt.Sprintf("Kind(%q)", byte(k))
}

// Op is one trace operation. Size is unused for Free.
type Op struct {
	Kind Kind
	ID   int
	Size int
}

func (o Op) String() string {
	if o.Kind == Free {
		return fmt.Sprintf("f %d", o.ID)
	}
	return fmt.Sprintf("%c %d %d", byte(o.Kind), o.ID, o.Size)
}

// Trace is a parsed allocation trace.
//
// File format, one value or op per line:
//
//	<suggested heap size>
//	<number of ids>
//	<number of ops>
//	<weight>
//	a <id> <bytes>
//	r <id> <bytes>
//	f <id>
type Trace struct {
	Name              string
	SuggestedHeapSize int
	NumIDs            int
	Weight            int
	Ops               []Op
}

// ParseFile reads and parses the trace at path. The trace is named after the
// file's base name.
func ParseFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Name = filepath.Base(path)
	return t, nil
}

// Parse reads a trace. It validates the header, the op count and id ranges;
// it does not check that ops are applied to live ids, which Replay does.
func Parse(r io.Reader) (*Trace, error) {
	sc := bufio.NewScanner(r)
	line := 0
	next := func() ([]string, bool) {
		for sc.Scan() {
			line++
			if fields := strings.Fields(sc.Text()); len(fields) > 0 {
				return fields, true
			}
		}
		return nil, false
	}

	var header [4]int
	names := [4]string{"suggested heap size", "number of ids", "number of ops", "weight"}
	for i := range header {
		fields, ok := next()
		if !ok {
			if err := sc.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: missing %s", ErrSyntax, names[i])
		}
		if len(fields) != 1 {
			return nil, fmt.Errorf("%w: line %d: %s: expected one value, got %d", ErrSyntax, line, names[i], len(fields))
		}
		v, err := strconv.Atoi(fields[0])
		if err != nil || v < 0 {
			return nil, fmt.Errorf("%w: line %d: %s: %q", ErrSyntax, line, names[i], fields[0])
		}
		header[i] = v
	}

	t := &Trace{
		SuggestedHeapSize: header[0],
		NumIDs:            header[1],
		Weight:            header[3],
		Ops:               make([]Op, 0, header[2]),
	}

	for {
		fields, ok := next()
		if !ok {
			break
		}
		op, err := parseOp(fields, t.NumIDs)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		t.Ops = append(t.Ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if len(t.Ops) != header[2] {
		return nil, fmt.Errorf("%w: header declares %d ops, found %d", ErrSyntax, header[2], len(t.Ops))
	}
	return t, nil
}

func parseOp(fields []string, numIDs int) (Op, error) {
	if len(fields[0]) != 1 {
		return Op{}, fmt.Errorf("%w: unknown op %q", ErrSyntax, fields[0])
	}
	op := Op{Kind: Kind(fields[0][0])}

	want := 3
	switch op.Kind {
	case Alloc, Realloc:
	case Free:
		want = 2
	default:
		return Op{}, fmt.Errorf("%w: unknown op %q", ErrSyntax, fields[0])
	}
	if len(fields) != want {
		return Op{}, fmt.Errorf("%w: %s takes %d fields, got %d", ErrSyntax, op.Kind, want-1, len(fields)-1)
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return Op{}, fmt.Errorf("%w: id %q", ErrSyntax, fields[1])
	}
	if id < 0 || id >= numIDs {
		return Op{}, fmt.Errorf("%w: id %d outside [0, %d)", ErrBadID, id, numIDs)
	}
	op.ID = id

	if want == 3 {
		size, err := strconv.Atoi(fields[2])
		if err != nil || size < 0 {
			return Op{}, fmt.Errorf("%w: size %q", ErrSyntax, fields[2])
		}
		op.Size = size
	}
	return op, nil
}

// Write serializes t in the format Parse reads.
func (t *Trace) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n%d\n%d\n%d\n", t.SuggestedHeapSize, t.NumIDs, len(t.Ops), t.Weight)
	for _, op := range t.Ops {
		fmt.Fprintln(bw, op.String())
	}
	return bw.Flush()
}
