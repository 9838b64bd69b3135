package main

import (
	"fmt"
	"strings"

	"github.com/garyellow/campus-ai-go/internal/corpus"
	"github.com/garyellow/campus-ai-go/internal/retrieval"
	"github.com/garyellow/campus-ai-go/internal/subjects"
	"github.com/spf13/cobra"
)

// verifyResult is one consistency check.
type verifyResult struct {
	name    string
	passed  bool
	message string
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the persisted corpus and the subject catalogue for consistency",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	results := verifyCorpus(cfg.CorpusDir)
	results = append(results, verifyCatalogue(subjects.Default())...)

	failed := 0
	for _, r := range results {
		status := "FAIL"
		if r.passed {
			status = "ok  "
		} else {
			failed++
		}
		cmd.Printf("%s %s: %s\n", status, r.name, r.message)
	}
	cmd.Printf("\n%d passed, %d failed\n", len(results)-failed, failed)

	if failed > 0 {
		return fmt.Errorf("%d verification checks failed", failed)
	}
	return nil
}

// verifyCorpus loads the artifacts and checks the index shape and the
// segments the rule override depends on.
func verifyCorpus(dir string) []verifyResult {
	c, err := corpus.Load(dir)
	if err != nil {
		return []verifyResult{{name: "Corpus artifacts", message: err.Error()}}
	}

	results := []verifyResult{{name: "Corpus artifacts", passed: true, message: dir}}

	err = c.Validate()
	results = append(results, verifyResult{
		name:    "Index consistency",
		passed:  err == nil,
		message: errMessage(err, fmt.Sprintf("%d segments, %d terms", c.Len(), len(c.Vectorizer.Vocabulary))),
	})

	rooms := c.Containing(retrieval.RoomInventoryMarker)
	results = append(results, verifyResult{
		name:    "Room inventory segments",
		passed:  len(rooms) > 0,
		message: fmt.Sprintf("%d segments contain %q", len(rooms), retrieval.RoomInventoryMarker),
	})

	timetables := c.Containing(retrieval.TimetableMarker)
	results = append(results, verifyResult{
		name:    "Timetable segments",
		passed:  len(timetables) > 0,
		message: fmt.Sprintf("%d segments contain %q", len(timetables), retrieval.TimetableMarker),
	})

	untagged := 0
	for _, s := range c.Segments {
		if !strings.HasPrefix(s, "[") || !strings.Contains(s, "] ") {
			untagged++
		}
	}
	results = append(results, verifyResult{
		name:    "Segment tags",
		passed:  untagged == 0,
		message: fmt.Sprintf("%d untagged segments", untagged),
	})
	return results
}

// verifyCatalogue checks that every year and branch lists at least one subject.
func verifyCatalogue(cat subjects.Catalogue) []verifyResult {
	var empty []string
	for year, branches := range cat {
		for branch, list := range branches {
			if len(list) == 0 {
				empty = append(empty, year+"/"+branch)
			}
		}
	}
	return []verifyResult{
		{
			name:    "Subject catalogue years",
			passed:  len(cat.Years()) > 0,
			message: strings.Join(cat.Years(), ", "),
		},
		{
			name:    "Subject catalogue entries",
			passed:  len(empty) == 0,
			message: fmt.Sprintf("%d empty year/branch lists %v", len(empty), empty),
		},
	}
}

func errMessage(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
