// Command varlociraptor implements the CLI boundary of §6: `preprocess
// variants`, `call variants {generic|tumor-normal}`, `call cnvs`,
// `filter-calls {control-fdr|posterior-odds}`, `estimate tmb`, and
// `decode-phred`, wiring the internal/ packages together the way §1
// describes the command-line surface as an external collaborator of the
// core library.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "varlociraptor:", err)
		os.Exit(1)
	}
}
