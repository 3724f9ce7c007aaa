package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var declsCmd = &cobra.Command{
	Use:   "decls <file>",
	Short: "Parse a file into declarations without running it",
	Long: `decls parses and analyzes the file as one fragment with code generation
disabled and prints every dispatched declaration group.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecls,
}

func runDecls(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	set, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	text, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	sess, err := openSession(cmd.Context(), set, sessionIO{stdout: out, stderr: cmd.ErrOrStderr(), dump: out})
	if err != nil {
		return err
	}
	defer sess.Close()

	groups, res := sess.drv.ParseDeclarationsOnly(cmd.Context(), string(text))
	sess.report(res)
	b := sess.fe.AST()
	for i := range groups {
		if err := b.FprintGroup(out, &groups[i]); err != nil {
			return err
		}
	}
	if !res.OK() {
		return fmt.Errorf("%s: %s", args[0], res.Status)
	}
	return nil
}
