package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dance-rollcall/db"
)

func newReportCommand(v *viper.Viper) *cobra.Command {
	var groupID, from, to, out string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write an attendance report workbook for a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, _, closeAll, err := openService(ctx, v)
			if err != nil {
				return err
			}
			defer closeAll()

			rep, err := svc.AttendanceReport(ctx, groupID, from, to)
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("attendance-%s.xlsx", groupID)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := db.WriteReportXLSX(rep, f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			log.Printf("Wrote report for %d students over %d sessions to %s", len(rep.Students), len(rep.Sessions), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&groupID, "group", "", "group ID (required)")
	cmd.Flags().StringVar(&from, "from", "", "first date to include, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date to include, YYYY-MM-DD")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default attendance-<group>.xlsx)")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}
