package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tidwall/pretty"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --format.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// writeValue writes v in the given format.
func writeValue(w io.Writer, v any, format string, color bool) error {
	switch format {
	case FormatYAML:
		return writeYAML(w, v)
	case FormatJSON:
		return writeJSON(w, v, color)
	default:
		return fmt.Errorf("unknown format %q (want yaml or json)", format)
	}
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

func writeJSON(w io.Writer, v any, color bool) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}

	out := pretty.Pretty(raw)
	if color {
		out = pretty.Color(out, nil)
	}
	_, err = w.Write(out)
	return err
}

// writeScalar writes a scalar on one line. Containers are written as YAML.
func writeScalar(w io.Writer, v any) error {
	var s string
	switch val := v.(type) {
	case nil:
		s = "null"
	case string:
		s = val
	case bool:
		s = strconv.FormatBool(val)
	case int64:
		s = strconv.FormatInt(val, 10)
	case float64:
		s = strconv.FormatFloat(val, 'g', -1, 64)
	default:
		var buf bytes.Buffer
		if err := writeYAML(&buf, v); err != nil {
			return err
		}
		_, err := buf.WriteTo(w)
		return err
	}
	_, err := fmt.Fprintln(w, s)
	return err
}

// useColor reports whether output to w should be colored.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
