package report

import (
	"fmt"
	"html/template"
	"io"

	"github.com/anhed0nic/cilens/internal/model"
)

// writeHTML renders a self-contained report page. No external assets, so
// the file can be attached to a ticket or emailed as is.
func writeHTML(w io.Writer, insights model.CIInsights, version string) error {
	type reportData struct {
		model.CIInsights
		Version string
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"pct":            func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
		"seconds":        func(v float64) string { return fmt.Sprintf("%.1fs", v) },
		"formatTime":     formatUTC,
		"successClass":   successClass,
		"failureClass":   failureClass,
		"flakinessClass": flakinessClass,
	}).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, reportData{CIInsights: insights, Version: version})
}

func successClass(rate float64) string {
	switch {
	case rate >= 80:
		return "good"
	case rate >= 50:
		return "warning"
	default:
		return "bad"
	}
}

func failureClass(rate float64) string {
	switch {
	case rate <= 25:
		return "good"
	case rate <= 50:
		return "warning"
	default:
		return "bad"
	}
}

func flakinessClass(rate float64) string {
	switch {
	case rate <= 5:
		return "good"
	case rate <= 15:
		return "warning"
	default:
		return "bad"
	}
}

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>cilens report - {{.Project}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 40px; background: #f5f5f5; }
        .container { max-width: 1200px; margin: 0 auto; background: white; padding: 30px; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
        h1 { color: #2c3e50; border-bottom: 3px solid #3498db; padding-bottom: 10px; }
        h2 { color: #34495e; margin-top: 30px; }
        .summary { background: #ecf0f1; padding: 20px; border-radius: 5px; margin: 20px 0; }
        table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        th, td { padding: 12px; text-align: left; border-bottom: 1px solid #ddd; }
        th { background: #3498db; color: white; }
        tr:nth-child(even) { background: #f8f9fa; }
        .good { color: #27ae60; }
        .warning { color: #f39c12; }
        .bad { color: #e74c3c; }
        footer { margin-top: 40px; padding-top: 20px; border-top: 1px solid #ddd; color: #666; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <h1>🔍 CI/CD Insights</h1>
        <div class="summary">
            <h2>Project Summary</h2>
            <p><strong>Project:</strong> {{.Project}}</p>
            <p><strong>Provider:</strong> {{.Provider}}</p>
            <p><strong>Analysis Date:</strong> {{formatTime .CollectedAt}}</p>
            <p><strong>Total Pipelines:</strong> {{.TotalPipelines}}</p>
            <p><strong>Pipeline Types:</strong> {{.TotalPipelineTypes}}</p>
        </div>

        <h2>Pipeline Types</h2>
        <table>
            <thead>
                <tr>
                    <th>Type</th>
                    <th>Percentage</th>
                    <th>Total</th>
                    <th>Success Rate</th>
                    <th>P95 Duration</th>
                </tr>
            </thead>
            <tbody>
                {{range .PipelineTypes}}
                <tr>
                    <td>{{.Label}}</td>
                    <td>{{pct .Metrics.Percentage}}</td>
                    <td>{{.Metrics.TotalPipelines}}</td>
                    <td class="{{successClass .Metrics.SuccessRate}}">{{pct .Metrics.SuccessRate}}</td>
                    <td>{{seconds .Metrics.DurationP95}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>

        <h2>Job Performance</h2>
        <table>
            <thead>
                <tr>
                    <th>Job Name</th>
                    <th>Pipeline Type</th>
                    <th>P95 Duration</th>
                    <th>P95 Time to Feedback</th>
                    <th>Failure Rate</th>
                    <th>Flakiness Rate</th>
                </tr>
            </thead>
            <tbody>
                {{range $pt := .PipelineTypes}}
                {{range .Metrics.Jobs}}
                <tr>
                    <td>{{.Name}}</td>
                    <td>{{$pt.Label}}</td>
                    <td>{{seconds .DurationP95}}</td>
                    <td>{{seconds .TimeToFeedbackP95}}</td>
                    <td class="{{failureClass .FailureRate}}">{{pct .FailureRate}}</td>
                    <td class="{{flakinessClass .FlakinessRate}}">{{pct .FlakinessRate}}</td>
                </tr>
                {{end}}
                {{end}}
            </tbody>
        </table>

        <footer>
            <p>Report generated by cilens {{.Version}} on {{formatTime .CollectedAt}}</p>
        </footer>
    </div>
</body>
</html>
`
