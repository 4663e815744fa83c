package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anstrom/portsweep/internal/report"
)

var (
	renderInput  string
	renderOutput string
)

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render an HTML report from a JSON export",
	Long: `Render rebuilds the HTML report from results previously exported with
'portsweep scan --json'. No scanning takes place.`,
	Example: `  portsweep render -i results.json -o report.html`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return executeRender(renderInput, renderOutput, viper.GetString("report.title"), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderInput, "input", "i", "", "JSON results file")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "scan_report.html", "HTML report path")

	if err := renderCmd.MarkFlagRequired("input"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to mark input flag required: %v\n", err)
	}
}

func executeRender(input, output, title string, out io.Writer) error {
	results, meta, err := report.ReadJSON(input)
	if err != nil {
		return err
	}

	size, err := report.WriteFile(output, results, meta, report.Options{Title: title})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Report saved to %s (%.1f KB, %d hosts)\n", absPath(output), float64(size)/bytesPerKB, len(results))
	return nil
}
