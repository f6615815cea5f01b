package main

import (
	"context"
	"fmt"

	"github.com/specedu/caseboard/core/sheet"
)

func (cli *commandLine) initSheets(ctx context.Context) error {
	written, err := sheet.EnsureHeaders(ctx, cli.tables, sheet.Headers)
	if err != nil {
		return err
	}
	if len(written) == 0 {
		fmt.Println("all tables already have a header")
		return nil
	}
	for _, table := range written {
		fmt.Printf("wrote %s header\n", table)
	}
	return nil
}
