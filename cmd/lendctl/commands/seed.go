package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/liblend/library-lending-go/lending"
	"github.com/liblend/library-lending-go/lending/postgresengine"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with a small sample catalog and borrow history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		if err := seed(cmd.Context(), store); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "sample data seeded")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func seed(ctx context.Context, store *postgresengine.Store) error {
	admin, err := store.CreateUser(ctx, postgresengine.NewUser{
		Email: "admin@library.local",
		Name:  "Library Admin",
		Role:  lending.RoleAdmin,
	})
	if err != nil {
		return err
	}

	member, err := store.CreateUser(ctx, postgresengine.NewUser{
		Email: "reader@library.local",
		Name:  "Avid Reader",
	})
	if err != nil {
		return err
	}

	books := []postgresengine.NewBook{
		{ISBN: "978-0134190440", Title: "The Go Programming Language", Author: "Donovan / Kernighan", ShelfLocation: "A-01", TotalQuantity: 3},
		{ISBN: "978-0201616224", Title: "The Pragmatic Programmer", Author: "Hunt / Thomas", ShelfLocation: "A-02", TotalQuantity: 2},
		{ISBN: "978-0132350884", Title: "Clean Code", Author: "Martin", ShelfLocation: "B-07", TotalQuantity: 1},
	}

	adminActor := lending.Actor{ID: admin.ID, Role: admin.Role}
	memberActor := lending.Actor{ID: member.ID, Role: member.Role}

	for i, book := range books {
		created, createErr := store.CreateBook(ctx, book)
		if createErr != nil {
			return createErr
		}

		borrow, borrowErr := store.CreateBorrow(ctx, memberActor, created.ID, time.Now().UTC().AddDate(0, 0, 14))
		if borrowErr != nil {
			return borrowErr
		}

		// Leave the last request pending so the seeded data covers both
		// lifecycle stages.
		if i == len(books)-1 {
			continue
		}

		status := lending.StatusApproved
		if _, updateErr := store.UpdateBorrow(ctx, adminActor, borrow.ID, lending.UpdateRequest{Status: &status}); updateErr != nil {
			return updateErr
		}
	}

	return nil
}
