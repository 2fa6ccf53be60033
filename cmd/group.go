package cmd

import (
	"fmt"

	"github.com/shouni/go-storyboard-kit/internal/builder"

	"github.com/spf13/cobra"
)

// groupCmd は、まだグループに属していないショットを自動でグループにまとめるのだ。
var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "ショットを動画生成用のグループにまとめますなのだ。",
	Long: `初回は全ショットを最大4ショット・15秒までのグループに分けるのだ。
2回目以降は既存のグループを残し、新しく追加されたショットだけをまとめるのだよ。`,
	RunE: groupCommand,
}

func groupCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	appCtx, err := builder.NewAppContext(ctx, loadConfig())
	if err != nil {
		return err
	}
	r, err := builder.BuildShotsRunner(appCtx)
	if err != nil {
		return err
	}

	groups, err := r.Group(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderGroups(groups))
	return nil
}
