package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/smarthealth/clinic/internal/domain/symptom"
)

func symptomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symptoms",
		Short: "Inspect the symptom knowledge base",
	}
	cmd.PersistentFlags().String("kb", "", "Knowledge base file (JSON or YAML); defaults to the built-in one")

	analyzeCmd := &cobra.Command{
		Use:   "analyze <description>",
		Short: "Recommend a specialty for a symptom description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer := loadAnalyzer(cmd)
			rec := analyzer.Analyze(strings.Join(args, " "))

			asJSON, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}
			fmt.Fprintf(out, "Specialty: %s\n", rec.PrimarySpecialty)
			fmt.Fprintf(out, "Urgency:   %s\n", rec.Urgency)
			fmt.Fprintf(out, "Advice:    %s\n", rec.Advice)
			for _, m := range rec.Matches {
				fmt.Fprintf(out, "  - %s (%q -> %s, %s)\n", m.SymptomID, m.KeywordMatched, m.Specialty, m.Urgency)
			}
			return nil
		},
	}
	analyzeCmd.Flags().Bool("json", false, "Print the full recommendation as JSON")
	cmd.AddCommand(analyzeCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "specialties",
		Short: "List specialties and their symptom categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer := loadAnalyzer(cmd)
			out := cmd.OutOrStdout()
			for _, s := range analyzer.Specialties() {
				var ids []string
				for _, e := range analyzer.SymptomsForSpecialty(s.Key) {
					ids = append(ids, e.ID)
				}
				fmt.Fprintf(out, "%-20s %s\n", s.Key, strings.Join(ids, ", "))
			}
			return nil
		},
	})
	return cmd
}

func loadAnalyzer(cmd *cobra.Command) *symptom.Analyzer {
	path, _ := cmd.Flags().GetString("kb")
	logger := zerolog.New(cmd.ErrOrStderr()).Level(zerolog.WarnLevel)
	return symptom.NewAnalyzer(symptom.LoadKnowledgeBase(path, logger))
}
