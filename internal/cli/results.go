package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/campus-records/internal/results"
	"github.com/aanand-mishra/campus-records/internal/utils/response"
)

// NewResultsCommand creates the results command.
func NewResultsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "results",
		Short: "Record and look up student exam results",
		Long: `Record and look up student exam results.

Results are kept in memory only and are gone when the menu exits.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			menu := &ResultsMenu{
				Engine: results.New(),
				Prompt: NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
				Out:    cmd.OutOrStdout(),
				Log:    opts.log,
			}
			return menu.Run()
		},
	}
}

// ResultsMenu is the interactive loop over a results.Engine.
type ResultsMenu struct {
	Engine *results.Engine
	Prompt *Prompter
	Out    io.Writer
	Log    *slog.Logger
}

// Run shows the menu until Exit is chosen or the input ends.
func (m *ResultsMenu) Run() error {
	if m.Log == nil {
		m.Log = slog.Default()
	}
	for {
		fmt.Fprintln(m.Out)
		fmt.Fprintln(m.Out, "1. Add Student")
		fmt.Fprintln(m.Out, "2. Show Student")
		fmt.Fprintln(m.Out, "3. List Students")
		fmt.Fprintln(m.Out, "4. Exit")

		choice, err := m.Prompt.ReadLine("Choice: ")
		if err != nil {
			return endOfInput(err)
		}

		switch choice {
		case "1":
			err = m.addStudent()
		case "2":
			err = m.showStudent()
		case "3":
			m.listStudents()
		case "4":
			fmt.Fprintln(m.Out, "Exit.")
			return nil
		default:
			fmt.Fprintln(m.Out, "Invalid choice.")
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (m *ResultsMenu) addStudent() error {
	roll, err := m.Prompt.ReadInt("Roll Number: ")
	if err != nil {
		return printRecoverable(m.Out, err)
	}
	name, err := m.Prompt.ReadLine("Student Name: ")
	if err != nil {
		return err
	}

	var marks [3]int
	for i := range marks {
		marks[i], err = m.Prompt.ReadInt(fmt.Sprintf("Marks %d: ", i+1))
		if err != nil {
			return printRecoverable(m.Out, err)
		}
	}

	if _, err := m.Engine.AddStudent(roll, name, marks); err != nil {
		return printRecoverable(m.Out, err)
	}

	m.Log.Info("student added", slog.Int("roll", roll))
	fmt.Fprintln(m.Out, "Student added.")
	return nil
}

func (m *ResultsMenu) showStudent() error {
	roll, err := m.Prompt.ReadInt("Enter roll: ")
	if err != nil {
		return printRecoverable(m.Out, err)
	}

	s, err := m.Engine.FindByRoll(roll)
	if err != nil {
		return printRecoverable(m.Out, err)
	}

	fmt.Fprintln(m.Out)
	fmt.Fprintln(m.Out, response.FormatStudent(s))
	return nil
}

func (m *ResultsMenu) listStudents() {
	students := m.Engine.Students()
	if len(students) == 0 {
		fmt.Fprintln(m.Out, "No students.")
		return
	}
	for _, s := range students {
		fmt.Fprintln(m.Out)
		fmt.Fprintln(m.Out, response.FormatStudent(s))
	}
}
