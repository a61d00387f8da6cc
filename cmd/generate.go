package main

import (
	"github.com/ManouchehrRasoulli/fsbrowser/internal"
	"github.com/spf13/cobra"
)

var (
	genFolder string
	genCount  int
	genName   string
	genExt    string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Fill a folder with numbered test files",
	Long: `Create --count files named <name>_<i><ext> in a folder under the base root,
handy for checking how the ui copes with large folders.
Example: fsbrowser generate --folder downloads --count 1000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		lg, clg := newLogger()

		cfg, err := loadConfig(cmd)
		if err != nil {
			clg.Failf("error fsbrowser : got error %v on reading configuration", err)
			return err
		}

		lister, err := internal.NewLister(cfg.Root, lg)
		if err != nil {
			clg.Failf("generate error : got error %v on resolving root %s !", err, cfg.Root)
			return err
		}

		dir, err := lister.Generate(genFolder, genName, genExt, genCount)
		if err != nil {
			clg.Failf("generate error : %v", err)
			return err
		}

		clg.Successf("generate : %d files created in %s", genCount, dir)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&genFolder, "folder", "downloads", "folder key under the base root.")
	generateCmd.Flags().IntVar(&genCount, "count", 1000, "number of files to create.")
	generateCmd.Flags().StringVar(&genName, "name", "rapor", "file name prefix.")
	generateCmd.Flags().StringVar(&genExt, "ext", ".txt", "file extension.")
}
