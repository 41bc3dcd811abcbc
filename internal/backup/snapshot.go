package backup

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Snapshot copies the live database into a new file at destPath with the
// SQLite online backup API, so concurrent writers never produce a torn copy.
func Snapshot(ctx context.Context, db *sql.DB, destPath string) error {
	dest, err := sql.Open("sqlite3", destPath)
	if err != nil {
		return err
	}
	defer dest.Close()

	srcConn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer srcConn.Close()

	destConn, err := dest.Conn(ctx)
	if err != nil {
		return err
	}
	defer destConn.Close()

	return destConn.Raw(func(dc any) error {
		return srcConn.Raw(func(sc any) error {
			d, ok := dc.(*sqlite3.SQLiteConn)
			if !ok {
				return fmt.Errorf("unexpected destination driver %T", dc)
			}
			s, ok := sc.(*sqlite3.SQLiteConn)
			if !ok {
				return fmt.Errorf("%w: driver is %T", ErrNotLocal, sc)
			}

			bk, err := d.Backup("main", s, "main")
			if err != nil {
				return err
			}
			if _, err := bk.Step(-1); err != nil {
				bk.Finish()
				return err
			}
			return bk.Finish()
		})
	})
}
