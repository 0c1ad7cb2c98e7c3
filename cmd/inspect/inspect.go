// Package inspect prints lock state of stored mesh documents.
package inspect

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/meshlock/meshlock-go/internal/conf"
	"github.com/meshlock/meshlock-go/internal/datastore"
	"github.com/meshlock/meshlock-go/internal/geometry"
	"github.com/meshlock/meshlock-go/internal/lockstore"
)

// Command creates the inspect subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect [mesh]",
		Short: "Show lock state of stored meshes",
		Long:  "Without arguments, list all stored meshes. With a mesh name, print its geometry counts, locked vertex indices and unlock-mode flag.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := datastore.New(settings)
			if store == nil {
				return fmt.Errorf("no datastore backend enabled, check output settings")
			}
			if err := store.Open(); err != nil {
				return fmt.Errorf("opening datastore: %w", err)
			}
			defer store.Close()

			if len(args) == 0 {
				return listMeshes(store)
			}
			return inspectMesh(store, args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}

func listMeshes(store datastore.Interface) error {
	names, err := store.ListMeshes()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("no meshes stored")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

type meshReport struct {
	Name        string `json:"name"`
	Verts       int    `json:"verts"`
	Edges       int    `json:"edges"`
	Faces       int    `json:"faces"`
	Locked      []int  `json:"locked"`
	UnlockMode  bool   `json:"unlock_mode"`
	HasLockAttr bool   `json:"has_lock_attribute"`
}

func buildReport(obj *geometry.Object) meshReport {
	m := obj.Mesh
	lockedSet := lockstore.LockedIndices(m)
	locked := make([]int, 0, len(lockedSet))
	for i := range lockedSet {
		locked = append(locked, i)
	}
	sort.Ints(locked)
	_, hasAttr := m.Attribute(lockstore.LockAttributeName)
	return meshReport{
		Name:        m.Name,
		Verts:       m.VertexCount(),
		Edges:       len(m.Edges),
		Faces:       len(m.Faces),
		Locked:      locked,
		UnlockMode:  obj.UnlockMode(),
		HasLockAttr: hasAttr,
	}
}

func inspectMesh(store datastore.Interface, name string, asJSON bool) error {
	obj, err := store.GetMesh(name)
	if err != nil {
		return err
	}
	report := buildReport(obj)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("mesh:        %s\n", report.Name)
	fmt.Printf("geometry:    %d verts, %d edges, %d faces\n", report.Verts, report.Edges, report.Faces)
	if !report.HasLockAttr {
		fmt.Println("locks:       no lock attribute")
	} else {
		fmt.Printf("locks:       %d locked %v\n", len(report.Locked), report.Locked)
	}
	if report.UnlockMode {
		fmt.Println("warning:     saved while unlock-selection mode was active")
	}
	return nil
}
