package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alexanderramin/skillcycle/internal/assessment"
	"github.com/alexanderramin/skillcycle/internal/chat"
	"github.com/alexanderramin/skillcycle/internal/cli/formatter"
	"github.com/alexanderramin/skillcycle/internal/domain"
	"github.com/alexanderramin/skillcycle/internal/service"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newAssessCmd(app *App) *cobra.Command {
	var (
		letters    string
		fromPath   string
		exportPath string
		dryRun     bool
		newSession bool
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Answer the skill questionnaire and request an analysis",
		Long: "Answer the ten-question skill questionnaire, then stream a personal\n" +
			"capability and monetisation analysis from the chat service.\n\n" +
			"Answers come from the interactive form, --answers (e.g. ABCDABCDAB)\n" +
			"or --from (a file written by --export).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			answers, err := gatherAnswers(app, letters, fromPath)
			if err != nil {
				return err
			}

			if exportPath != "" {
				if err := exportAnswers(exportPath, answers); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), formatter.Dim("Answers written to "+exportPath))
			}

			if dryRun {
				query, err := assessment.FormatQuery(answers)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), query)
				return nil
			}

			return runExchange(cmd, app, "Analysing", func(ctx context.Context, onFragment chat.FragmentFunc, onAttempt func(chat.Endpoint, int)) (*domain.Conversation, error) {
				return app.Chat.Assess(ctx, service.AssessRequest{
					Answers:    answers,
					NewSession: newSession,
					OnFragment: onFragment,
					OnAttempt:  onAttempt,
				})
			})
		},
	}

	cmd.Flags().StringVar(&letters, "answers", "", "option letters for questions 1-10, e.g. ABCDABCDAB")
	cmd.Flags().StringVar(&fromPath, "from", "", "read answers from a JSON file")
	cmd.Flags().StringVar(&exportPath, "export", "", "write answers as JSON to this file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the analysis request instead of sending it")
	cmd.Flags().BoolVar(&newSession, "new", false, "start a new remote session")
	return cmd
}

func gatherAnswers(app *App, letters, fromPath string) ([]assessment.Answer, error) {
	switch {
	case letters != "" && fromPath != "":
		return nil, errors.New("--answers and --from cannot be combined")
	case letters != "":
		choices, err := parseAnswerLetters(letters)
		if err != nil {
			return nil, err
		}
		return assessment.Collect(choices)
	case fromPath != "":
		return importAnswers(fromPath)
	case app.interactive():
		return runAssessmentForm()
	default:
		return nil, errors.New("no answers given: use --answers or --from, or run in a terminal")
	}
}

// parseAnswerLetters maps "A,b C..." to question ids in questionnaire order.
// Separators are ignored; exactly one letter per question is required.
func parseAnswerLetters(s string) (map[int]string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, strings.ToUpper(s))

	questions := assessment.Questions()
	letters := []rune(cleaned)
	if len(letters) != len(questions) {
		return nil, fmt.Errorf("expected %d answers, got %d", len(questions), len(letters))
	}

	choices := make(map[int]string, len(questions))
	for i, q := range questions {
		choices[q.ID] = string(letters[i])
	}
	return choices, nil
}

func runAssessmentForm() ([]assessment.Answer, error) {
	values := make(map[int]*string)
	if err := assessmentForm(values).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, errors.New("assessment cancelled")
		}
		return nil, fmt.Errorf("running questionnaire: %w", err)
	}

	choices := make(map[int]string, len(values))
	for id, v := range values {
		choices[id] = *v
	}
	return assessment.Collect(choices)
}

func exportAnswers(path string, answers []assessment.Answer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := assessment.WriteJSON(f, answers); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func importAnswers(path string) ([]assessment.Answer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening answers file: %w", err)
	}
	defer f.Close()

	answers, err := assessment.ReadJSON(f)
	if err != nil {
		return nil, err
	}
	if len(answers) == 0 {
		return nil, fmt.Errorf("%s: %w", path, assessment.ErrIncomplete)
	}
	return answers, nil
}
