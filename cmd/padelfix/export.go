package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/derekprior/padelfix/internal/excel"
	"github.com/derekprior/padelfix/internal/models"
	"github.com/derekprior/padelfix/internal/pdf"
	"github.com/derekprior/padelfix/internal/storage"
)

// exportFixtures writes the workbook and, when pdfPath is set, the PDF in
// parallel, then uploads both when an uploader is given.
func exportFixtures(ctx context.Context, fixtures []models.Fixture, xlsxPath, pdfPath string, uploader storage.FileUploader) error {
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := excel.Generate(fixtures)
		if err != nil {
			return fmt.Errorf("generating Excel: %w", err)
		}
		defer f.Close()
		if err := f.SaveAs(xlsxPath); err != nil {
			return fmt.Errorf("saving file: %w", err)
		}
		return nil
	})
	if pdfPath != "" {
		g.Go(func() error {
			out, err := pdf.NewRenderer().Render(fixtures, "")
			if err != nil {
				return fmt.Errorf("generating PDF: %w", err)
			}
			if err := os.WriteFile(pdfPath, out, 0644); err != nil {
				return fmt.Errorf("saving file: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("✓ Fixture saved to %s\n", xlsxPath)
	if pdfPath != "" {
		fmt.Printf("✓ PDF saved to %s\n", pdfPath)
	}
	if uploader == nil {
		return nil
	}

	files := []string{xlsxPath}
	if pdfPath != "" {
		files = append(files, pdfPath)
	}
	tournamentID := fixtures[0].Tournament.ID

	g, gctx := errgroup.WithContext(ctx)
	for _, file := range files {
		file := file
		g.Go(func() error {
			fh, err := os.Open(file)
			if err != nil {
				return err
			}
			defer fh.Close()

			key := path.Join(tournamentID, filepath.Base(file))
			res, err := uploader.Upload(gctx, key, storage.ContentType(file), fh)
			if err != nil {
				return err
			}
			where := res.Location
			if where == "" {
				where = res.Key
			}
			fmt.Printf("✓ Uploaded %s\n", where)
			return nil
		})
	}
	return g.Wait()
}
