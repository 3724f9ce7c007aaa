package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"kiln/internal/driver"
	"kiln/internal/pipeline"
	"kiln/internal/version"
)

const continuationPrompt = "   ...> "

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive shell",
	Args:  cobra.NoArgs,
	RunE:  runREPL,
}

func runREPL(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	set, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	sess, err := openSession(ctx, set, sessionIO{stdout: out, stderr: cmd.ErrOrStderr(), dump: out})
	if err != nil {
		return err
	}
	defer sess.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          set.cfg.REPL.Prompt,
		HistoryFile:     set.cfg.REPL.History,
		AutoComplete:    replCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	sh := newShell(sess, out)
	if set.color {
		printBanner(out, sess)
	}

	for {
		rl.SetPrompt(sh.prompt(set.cfg.REPL.Prompt))
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			// ^C сбрасывает недописанный ввод, на пустой строке выходит
			if sh.pending() {
				sh.discard()
				continue
			}
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if sh.handle(ctx, line) {
			return nil
		}
	}
}

func replCompleter() *readline.PrefixCompleter {
	stages := make([]readline.PrefixCompleterInterface, 0, 6)
	for id := pipeline.StageDynamicRewriter; id <= pipeline.StageSnapshotWriter; id++ {
		stages = append(stages, readline.PcItem(id.String(),
			readline.PcItem("on"),
			readline.PcItem("off"),
		))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
		readline.PcItem(".dynamic", readline.PcItem("on"), readline.PcItem("off")),
		readline.PcItem(".dump", readline.PcItem("on"), readline.PcItem("off")),
		readline.PcItem(".stages"),
		readline.PcItem(".stage", stages...),
		readline.PcItem(".txn"),
		readline.PcItem(".decls"),
		readline.PcItem(".snapshot", readline.PcItem("write")),
	)
}

func printBanner(w io.Writer, sess *cliSession) {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	hint := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	fmt.Fprintln(w, title.Render("kiln "+version.Version))
	if src := sess.drv.StartupSnapshot(); src != nil {
		fmt.Fprintln(w, hint.Render(fmt.Sprintf("snapshot %s (%d declarations)", src.Path(), src.Len())))
	}
	fmt.Fprintln(w, hint.Render("type .help for commands"))
}

// shell is the line discipline of the REPL: it buffers unbalanced input,
// runs dot commands and submits complete fragments to the driver.
type shell struct {
	sess  *cliSession
	out   io.Writer
	buf   strings.Builder
	depth int
	// inside an unterminated /* comment
	inComment bool
}

func newShell(sess *cliSession, out io.Writer) *shell {
	return &shell{sess: sess, out: out}
}

func (sh *shell) pending() bool { return sh.buf.Len() > 0 }

func (sh *shell) discard() {
	sh.buf.Reset()
	sh.depth = 0
	sh.inComment = false
}

func (sh *shell) prompt(primary string) string {
	if sh.pending() {
		return continuationPrompt
	}
	return primary
}

// handle processes one input line and reports whether the shell should exit.
func (sh *shell) handle(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	if !sh.pending() {
		if trimmed == "" {
			return false
		}
		if strings.HasPrefix(trimmed, ".") {
			return sh.dotCommand(ctx, trimmed)
		}
	}
	if sh.pending() {
		sh.buf.WriteByte('\n')
	}
	sh.buf.WriteString(line)
	delta, inComment := braceDepth(line, sh.inComment)
	sh.depth += delta
	sh.inComment = inComment
	if sh.depth > 0 || sh.inComment {
		return false
	}
	text := sh.buf.String()
	sh.discard()
	sh.submit(ctx, text)
	return false
}

func (sh *shell) submit(ctx context.Context, text string) {
	var out driver.Outcome
	if strings.HasPrefix(strings.TrimLeft(text, " \t"), "#") {
		out = sh.sess.drv.CompilePreprocessed(ctx, text)
	} else {
		out = sh.sess.drv.CompileLineFromPrompt(ctx, text)
	}
	sh.sess.report(out)
}

func (sh *shell) dotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	drv := sh.sess.drv
	switch parts[0] {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(sh.out)

	case ".dynamic":
		if len(parts) == 1 {
			fmt.Fprintf(sh.out, "dynamic lookup: %s\n", onOff(drv.State().DynamicLookup))
			return false
		}
		on, ok := parseOnOff(parts[1])
		if !ok {
			fmt.Fprintln(sh.out, "usage: .dynamic on|off")
			return false
		}
		if err := drv.EnableDynamicLookup(on); err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}

	case ".dump":
		on, ok := false, len(parts) == 2
		if ok {
			on, ok = parseOnOff(parts[1])
		}
		if !ok {
			fmt.Fprintln(sh.out, "usage: .dump on|off")
			return false
		}
		setStage(drv.Pipeline(), pipeline.StageDumper, on)

	case ".stages":
		for _, st := range drv.Pipeline().States() {
			fmt.Fprintf(sh.out, "  %-18s %s\n", st.ID, onOff(st.Enabled))
		}

	case ".stage":
		if len(parts) != 3 {
			fmt.Fprintln(sh.out, "usage: .stage <name> on|off")
			return false
		}
		id, ok := pipeline.ParseStageID(parts[1])
		if !ok {
			fmt.Fprintf(sh.out, "unknown stage %q\n", parts[1])
			return false
		}
		on, ok := parseOnOff(parts[2])
		if !ok {
			fmt.Fprintln(sh.out, "usage: .stage <name> on|off")
			return false
		}
		if !setStage(drv.Pipeline(), id, on) {
			fmt.Fprintf(sh.out, "stage %s is not registered\n", id)
		}

	case ".txn":
		for _, txn := range drv.State().Log() {
			name := txn.Fragment
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(sh.out, "  #%-3d %-16s %-9s groups=%d decls=%d\n",
				txn.ID, name, txn.State, txn.Groups, len(txn.Decls))
		}

	case ".decls":
		code := strings.TrimSpace(strings.TrimPrefix(line, ".decls"))
		if code == "" {
			fmt.Fprintln(sh.out, "usage: .decls <code>")
			return false
		}
		groups, out := drv.ParseDeclarationsOnly(ctx, code)
		sh.sess.report(out)
		b := sh.sess.fe.AST()
		for i := range groups {
			if err := b.FprintGroup(sh.out, &groups[i]); err != nil {
				fmt.Fprintf(sh.out, "error: %v\n", err)
				return false
			}
		}

	case ".snapshot":
		if len(parts) == 2 && parts[1] == "write" {
			if err := drv.WriteStartupSnapshot(ctx); err != nil {
				fmt.Fprintf(sh.out, "error: %v\n", err)
				return false
			}
			fmt.Fprintln(sh.out, "snapshot written")
			return false
		}
		st := drv.State()
		switch {
		case st.UsingSnapshot:
			src := drv.StartupSnapshot()
			fmt.Fprintf(sh.out, "using %s (%d declarations, %s)\n", src.Path(), src.Len(), src.Tool())
		case st.BuildingSnapshot:
			fmt.Fprintln(sh.out, "building; .snapshot write saves the session")
		default:
			fmt.Fprintln(sh.out, "no startup snapshot")
		}

	default:
		fmt.Fprintf(sh.out, "unknown command %s (try .help)\n", parts[0])
	}
	return false
}

func setStage(p *pipeline.Pipeline, id pipeline.StageID, on bool) bool {
	if on {
		_, ok := p.Enable(id)
		return ok
	}
	_, ok := p.Disable(id)
	return ok
}

func parseOnOff(s string) (on, ok bool) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, true
	case "off", "false", "0":
		return false, true
	}
	return false, false
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func printREPLHelp(w io.Writer) {
	fmt.Fprint(w, `Commands:
  .help                 show this help
  .quit, .exit          leave the shell
  .dynamic [on|off]     show or toggle dynamic name lookup
  .dump on|off          print every dispatched declaration
  .stages               list pipeline stages
  .stage <name> on|off  toggle one stage
  .txn                  show the transaction log
  .decls <code>         parse declarations without running them
  .snapshot [write]     show the startup snapshot or write the one being built

Input:
  Statements and expressions run immediately; a trailing expression
  without ';' prints its value. Lines starting with '#' are directives.
  Unbalanced braces continue on the next line.
`)
}

// braceDepth counts '{' minus '}' outside string literals and comments.
// inComment says the line starts inside a /* comment; the second result
// says whether it ends inside one.
func braceDepth(line string, inComment bool) (int, bool) {
	depth := 0
	inString := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inComment:
			if c == '*' && i+1 < len(line) && line[i+1] == '/' {
				inComment = false
				i++
			}
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return depth, false
		case c == '/' && i+1 < len(line) && line[i+1] == '*':
			inComment = true
			i++
		case c == '{':
			depth++
		case c == '}':
			depth--
		}
	}
	return depth, inComment
}
