package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/compository/app/anywork"
	"github.com/compository/app/compository"
	"github.com/compository/app/holo"
	"github.com/compository/app/pretty"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List DNA templates that have been instantiated, with their zomes.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		opened := openSession(ctx)
		defer opened.Close()

		records, err := opened.Compository.GetAllInstantiatedDnas(ctx)
		pretty.Guard(err == nil, 1, "Could not fetch instantiated DNAs: %v", err)

		usage := map[string]int{}
		hashes := []holo.Hash{}
		for _, record := range records {
			key := record.Content.DnaTemplateHash.String()
			if usage[key] == 0 {
				hashes = append(hashes, record.Content.DnaTemplateHash)
			}
			usage[key]++
		}

		var mu sync.Mutex
		templates := make(map[string]compository.DnaTemplate, len(hashes))
		err = anywork.Fanout(ctx, len(hashes), 0, func(ctx context.Context, index int) error {
			template, err := opened.Compository.GetDnaTemplate(ctx, hashes[index])
			if err != nil {
				return fmt.Errorf("template %s: %w", hashes[index], err)
			}
			mu.Lock()
			templates[hashes[index].String()] = template
			mu.Unlock()
			return nil
		})
		pretty.Guard(err == nil, 1, "Could not fetch templates: %v", err)

		rows := make([][]string, 0, len(hashes))
		for _, hash := range hashes {
			key := hash.String()
			template := templates[key]
			names := make([]string, 0, len(template.ZomeDefs))
			for _, zome := range template.ZomeDefs {
				names = append(names, zome.Name)
			}
			rows = append(rows, []string{template.Name, key, fmt.Sprintf("%d", usage[key]), strings.Join(names, ",")})
		}
		sort.SliceStable(rows, func(left, right int) bool {
			return rows[left][0] < rows[right][0]
		})
		pretty.Table([]string{"NAME", "HASH", "DNAS", "ZOMES"}, rows)
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}
