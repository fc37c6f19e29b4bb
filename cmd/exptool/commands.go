package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Comcast/pathways/core"
	"github.com/Comcast/pathways/interpreters"
	"github.com/Comcast/pathways/interpreters/noop"
	"github.com/Comcast/pathways/loader"
	"github.com/Comcast/pathways/storage/bolt"
	"github.com/Comcast/pathways/tools"

	"github.com/jsccast/yaml"
	"go.uber.org/zap"
)

// Command is a subcommand.
type Command interface {
	Doc() string
	Flags() *flag.FlagSet
	Run(ctx context.Context, in io.Reader, out io.Writer) error
}

var Commands = map[string]Command{
	"analyze":    &Analyzer{},
	"check":      &Checker{},
	"dot":        &Grapher{},
	"mermaid":    &Mermaider{},
	"html":       &Pager{},
	"yamltojson": &YAMLToJSON{},
	"jsontoyaml": &JSONToYAML{},
	"load":       &Loader{},
}

func names() []string {
	acc := make([]string, 0, len(Commands))
	for name := range Commands {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}

// silent returns interpreters that compile any guard without running
// it.
func silent() map[string]core.Interpreter {
	i := noop.NewInterpreter()
	i.Silent = true
	return map[string]core.Interpreter{
		"goja":       i,
		"ecmascript": i,
		"noop":       i,
		"":           i,
	}
}

// read parses an exploration from the input.
func read(ctx context.Context, in io.Reader, is map[string]core.Interpreter) (*core.Exploration, error) {
	bs, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	return loader.ParseExploration(ctx, "stdin", bs, is)
}

type Analyzer struct {
	fs *flag.FlagSet
}

func (c *Analyzer) Doc() string {
	return "Writes a JSON analysis of the exploration's structure."
}

func (c *Analyzer) Flags() *flag.FlagSet {
	if c.fs == nil {
		c.fs = flag.NewFlagSet("analyze", flag.ContinueOnError)
	}
	return c.fs
}

func (c *Analyzer) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	e, err := read(ctx, in, silent())
	if err != nil {
		return err
	}
	a, err := tools.Analyze(e)
	if err != nil {
		return err
	}
	js, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", js)
	return err
}

type Checker struct {
	fs *flag.FlagSet
}

func (c *Checker) Doc() string {
	return "Compiles the exploration, including its guards, and reports problems."
}

func (c *Checker) Flags() *flag.FlagSet {
	if c.fs == nil {
		c.fs = flag.NewFlagSet("check", flag.ContinueOnError)
	}
	return c.fs
}

func (c *Checker) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	e, err := read(ctx, in, interpreters.Standard(nil))
	if err != nil {
		return err
	}
	a, err := tools.Analyze(e)
	if err != nil {
		return err
	}
	var warnings []string
	if 0 < len(a.Unreachable) {
		warnings = append(warnings, "unreachable states: "+strings.Join(a.Unreachable, ", "))
	}
	if 0 < len(a.DeadEnds) {
		warnings = append(warnings, "states that can't finish: "+strings.Join(a.DeadEnds, ", "))
	}
	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	_, err = fmt.Fprintf(out, "%s ok (%d states)\n", e.Id, len(e.States))
	return err
}

type Grapher struct {
	fs   *flag.FlagSet
	From string
	To   string
	PNG  string
}

func (c *Grapher) Doc() string {
	return "Writes a Graphviz dot file for the exploration."
}

func (c *Grapher) Flags() *flag.FlagSet {
	if c.fs == nil {
		c.fs = flag.NewFlagSet("dot", flag.ContinueOnError)
		c.fs.StringVar(&c.From, "from", "", "highlight a transition from this state")
		c.fs.StringVar(&c.To, "to", "", "highlight a transition to this state")
		c.fs.StringVar(&c.PNG, "png", "", "also write basename.dot and basename.png (needs dot)")
	}
	return c.fs
}

func (c *Grapher) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	e, err := read(ctx, in, silent())
	if err != nil {
		return err
	}
	if c.PNG != "" {
		filename, err := tools.PNG(e, c.PNG, c.From, c.To)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\n", filename)
		return err
	}
	return tools.Dot(e, out, c.From, c.To)
}

type Mermaider struct {
	fs         *flag.FlagSet
	HideInputs bool
}

func (c *Mermaider) Doc() string {
	return "Writes a Mermaid graph for the exploration."
}

func (c *Mermaider) Flags() *flag.FlagSet {
	if c.fs == nil {
		c.fs = flag.NewFlagSet("mermaid", flag.ContinueOnError)
		c.fs.BoolVar(&c.HideInputs, "q", false, "don't show rule inputs")
	}
	return c.fs
}

func (c *Mermaider) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	e, err := read(ctx, in, silent())
	if err != nil {
		return err
	}
	return tools.Mermaid(e, out, &tools.MermaidOpts{
		ShowInputs:  !c.HideInputs,
		GuardedFill: "#bcf2db",
	})
}

type Pager struct {
	fs    *flag.FlagSet
	CSS   string
	Graph bool
}

func (c *Pager) Doc() string {
	return "Writes an HTML page that documents the exploration."
}

func (c *Pager) Flags() *flag.FlagSet {
	if c.fs == nil {
		c.fs = flag.NewFlagSet("html", flag.ContinueOnError)
		c.fs.StringVar(&c.CSS, "css", "", "comma-separated CSS URLs")
		c.fs.BoolVar(&c.Graph, "g", false, "include a graph")
	}
	return c.fs
}

func (c *Pager) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	e, err := read(ctx, in, silent())
	if err != nil {
		return err
	}
	var css []string
	if c.CSS != "" {
		css = strings.Split(c.CSS, ",")
	}
	return tools.RenderExplorationPage(e, out, css, c.Graph)
}

type YAMLToJSON struct {
	fs     *flag.FlagSet
	Pretty bool
}

func (c *YAMLToJSON) Doc() string {
	return "Converts an exploration from YAML to JSON."
}

func (c *YAMLToJSON) Flags() *flag.FlagSet {
	if c.fs == nil {
		c.fs = flag.NewFlagSet("yamltojson", flag.ContinueOnError)
		c.fs.BoolVar(&c.Pretty, "p", false, "pretty-print")
	}
	return c.fs
}

func (c *YAMLToJSON) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	bs, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	var e *core.Exploration
	if err = yaml.Unmarshal(bs, &e); err != nil {
		return err
	}
	if c.Pretty {
		bs, err = json.MarshalIndent(&e, "", "  ")
	} else {
		bs, err = json.Marshal(&e)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", bs)
	return err
}

type JSONToYAML struct {
	fs *flag.FlagSet
}

func (c *JSONToYAML) Doc() string {
	return "Converts an exploration from JSON to YAML."
}

func (c *JSONToYAML) Flags() *flag.FlagSet {
	if c.fs == nil {
		c.fs = flag.NewFlagSet("jsontoyaml", flag.ContinueOnError)
	}
	return c.fs
}

func (c *JSONToYAML) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	bs, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	var e *core.Exploration
	if err = json.Unmarshal(bs, &e); err != nil {
		return err
	}
	if bs, err = yaml.Marshal(&e); err != nil {
		return err
	}
	_, err = out.Write(bs)
	return err
}

type Loader struct {
	fs  *flag.FlagSet
	DB  string
	Dir string
}

func (c *Loader) Doc() string {
	return "Loads a directory of explorations into a BoltDB file.  Doesn't read standard input."
}

func (c *Loader) Flags() *flag.FlagSet {
	if c.fs == nil {
		c.fs = flag.NewFlagSet("load", flag.ContinueOnError)
		c.fs.StringVar(&c.DB, "db", "pathways.db", "BoltDB filename")
		c.fs.StringVar(&c.Dir, "d", "explorations", "directory of exploration YAML files")
	}
	return c.fs
}

func (c *Loader) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	logger := zap.NewNop()
	is := interpreters.Standard(logger)

	s, err := bolt.NewStorage(c.DB, is, logger)
	if err != nil {
		return err
	}
	if err := s.Open(ctx); err != nil {
		return err
	}
	defer s.Close(ctx)

	n, err := loader.Load(ctx, s, c.Dir, is, logger)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "loaded %d explorations into %s\n", n, c.DB)
	return err
}
