package main

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remiblancher/qtsa/internal/profile"
	"github.com/remiblancher/qtsa/profiles"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Issuing profile management",
	Long: `Commands for listing and inspecting TSA issuing profiles.

Built-in profiles are embedded in the binary. Use 'profile show' to dump
one as a starting point for customization.

Examples:
  qtsa profile list
  qtsa profile show tsa-strict`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in profiles",
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a built-in profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

func init() {
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
}

func runProfileList(cmd *cobra.Command, args []string) error {
	return fs.WalkDir(profiles.FS, "tsa", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".yaml") {
			return err
		}
		data, err := profiles.FS.ReadFile(p)
		if err != nil {
			return err
		}
		prof, err := profile.Parse(data)
		if err != nil {
			return fmt.Errorf("invalid embedded profile %s: %w", p, err)
		}
		fmt.Printf("%-12s  policy=%-22s  %s\n", prof.Name, prof.Policy, prof.Description)
		return nil
	})
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	name := args[0]

	var found []byte
	err := fs.WalkDir(profiles.FS, "tsa", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".yaml") {
			return err
		}
		data, rerr := profiles.FS.ReadFile(p)
		if rerr != nil {
			return rerr
		}
		prof, perr := profile.Parse(data)
		if perr != nil {
			return perr
		}
		if prof.Name == name || strings.TrimSuffix(path.Base(p), ".yaml") == name {
			found = data
		}
		return nil
	})
	if err != nil {
		return err
	}
	if found == nil {
		return fmt.Errorf("unknown profile: %s", name)
	}

	fmt.Print(string(found))
	return nil
}
