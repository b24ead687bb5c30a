// Package sqlite provides an embedded SQLite client built on GORM.
//
// Each knowledge base keeps its chunk metadata in its own database file,
// and a shared file holds the file registry. The driver is pure Go
// (github.com/glebarez/sqlite), so no cgo toolchain is required.
//
// Example usage:
//
//	client, err := sqlite.New(ctx, sqlite.NewOptions("/data/kb_text.db"))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	db := client.DB()
//	db.AutoMigrate(&model.Chunk{})
package sqlite
