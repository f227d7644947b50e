package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cropdoc/internal/articulation"
	"cropdoc/internal/diagnosis"
	"cropdoc/internal/enrichment"
	"cropdoc/internal/store"
	"cropdoc/internal/types"
)

type requestFlags struct {
	image    string
	text     string
	mimeType string
	lat      float64
	lon      float64
	crop     string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.image, "image", "", "Image file to analyze")
	cmd.Flags().StringVar(&f.text, "text", "", "Written observation to analyze")
	cmd.Flags().StringVar(&f.mimeType, "mime", "", "Image mime type (sniffed when empty)")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "Latitude hint")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "Longitude hint")
	cmd.Flags().StringVar(&f.crop, "crop", "", "Crop hint")
}

// build turns the flags into a request for kind.
func (f *requestFlags) build(cmd *cobra.Command, kind types.DiagnosisKind) (types.DiagnosticRequest, error) {
	rc := types.RequestContext{CropHint: f.crop}
	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
		rc.Location = &types.Coordinates{Latitude: f.lat, Longitude: f.lon}
	}

	switch {
	case f.image != "" && f.text != "":
		return types.DiagnosticRequest{}, fmt.Errorf("%w: use either --image or --text, not both", types.ErrInput)
	case f.image != "":
		data, err := os.ReadFile(f.image)
		if err != nil {
			return types.DiagnosticRequest{}, fmt.Errorf("%w: %v", types.ErrInput, err)
		}
		return types.NewImageRequest(kind, data, f.mimeType, rc), nil
	case f.text != "":
		return types.NewTextRequest(kind, f.text, rc), nil
	}
	return types.DiagnosticRequest{}, fmt.Errorf("%w: one of --image or --text is required", types.ErrInput)
}

func newDiagnoseCmd() *cobra.Command {
	var (
		req      requestFlags
		kindName string
		addTo    string
		newPlan  bool
		newList  string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Diagnose a weed, pest, disease or soil problem",
		Example: `  cropdoc diagnose --kind weed --image field.jpg --crop tomato
  cropdoc diagnose --kind pest --text "small holes in cabbage leaves" --new-plan`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := types.ParseDiagnosisKind(kindName)
			if err != nil {
				return err
			}
			request, err := req.build(cmd, kind)
			if err != nil {
				return err
			}

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			pipeline, err := newPipeline(st)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd.Context())
			defer cancel()
			out, err := pipeline.Diagnose(ctx, request)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(diagnosisJSON(out)); err != nil {
					return err
				}
			} else {
				if err := articulation.RenderResult(w, out.Result, out.AffectedCrops, out.Suggestion); err != nil {
					return err
				}
				printAffectedPlans(ctx, cmd, st, out.AffectedCrops)
			}
			if out.Degraded {
				fmt.Fprintf(cmd.ErrOrStderr(), "analysis degraded: %v\n", out.Cause)
				return nil
			}
			if !out.Actionable {
				return nil
			}

			switch {
			case addTo != "":
				task, err := st.AddTask(ctx, addTo, out.Suggestion)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Added task %s to %s\n", task.ID, addTo)
			case newPlan:
				plan, task, err := st.QuickPlan(ctx, out.Suggestion, out.Suggestion)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Created plan %q (%s) with task %s\n", plan.Title, plan.ID, task.ID)
			case newList != "":
				list, task, err := st.CreateAndAddTask(ctx, types.OwnerList, newList, nil, out.Suggestion)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Created list %q (%s) with task %s\n", list.Title, list.ID, task.ID)
			}
			return nil
		},
	}
	req.register(cmd)
	cmd.Flags().StringVar(&kindName, "kind", "weed", "weed, pest, disease or soil")
	cmd.Flags().StringVar(&addTo, "add-to", "", "Add the suggested task to this list or plan id")
	cmd.Flags().BoolVar(&newPlan, "new-plan", false, "Create a quick crop plan holding the suggested task")
	cmd.Flags().StringVar(&newList, "new-list", "", "Create a list with this title holding the suggested task")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.MarkFlagsMutuallyExclusive("add-to", "new-plan", "new-list")
	return cmd
}

// printAffectedPlans lists the plan ids matching the affected crops so the
// user can pass one to --add-to.
func printAffectedPlans(ctx context.Context, cmd *cobra.Command, st *store.Store, crops []string) {
	if len(crops) == 0 {
		return
	}
	plans, err := st.ListAll(ctx, types.OwnerPlan)
	if err != nil {
		return
	}
	for _, p := range enrichment.AffectedPlans(plans, crops) {
		fmt.Fprintf(cmd.OutOrStdout(), "  affects plan %q (%s)\n", p.Title, p.ID)
	}
}

type diagnosisOutput struct {
	Result        types.DiagnosticResult `json:"result"`
	AffectedCrops []string               `json:"affected_crops"`
	Suggestion    string                 `json:"suggestion,omitempty"`
	Degraded      bool                   `json:"degraded"`
	Cause         string                 `json:"cause,omitempty"`
}

func diagnosisJSON(out diagnosis.Outcome) diagnosisOutput {
	o := diagnosisOutput{
		Result:        out.Result,
		AffectedCrops: out.AffectedCrops,
		Suggestion:    out.Suggestion,
		Degraded:      out.Degraded,
	}
	if out.Cause != nil {
		o.Cause = out.Cause.Error()
	}
	return o
}

func newSoilReportCmd() *cobra.Command {
	var req requestFlags
	cmd := &cobra.Command{
		Use:   "soil-report",
		Short: "Write a sectioned soil report and fertilizer plan for a crop",
		Example: `  cropdoc soil-report --crop rice --text "pH 5.2, N 12 ppm, P 8 ppm, K 110 ppm"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := req.build(cmd, types.KindSoil)
			if err != nil {
				return err
			}
			pipeline, err := newPipeline(nil)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd.Context())
			defer cancel()

			report, err := pipeline.SoilReport(ctx, request, req.crop)
			if report != "" {
				fmt.Fprintln(cmd.OutOrStdout(), report)
			}
			return err
		},
	}
	req.register(cmd)
	_ = cmd.MarkFlagRequired("crop")
	return cmd
}
