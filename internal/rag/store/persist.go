package store

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketMeta    = []byte("meta")
	bucketVectors = []byte("vectors")

	keyBackend    = []byte("backend")
	keyDim        = []byte("dim")
	keyCollection = []byte("collection")
)

const (
	backendFlat   = "flat"
	backendMilvus = "milvus"
)

var boltOptions = &bbolt.Options{Timeout: 5 * time.Second}

// writeBolt 先写临时文件再原子替换，保证持久化要么完整要么不发生。
func writeBolt(path string, fn func(tx *bbolt.Tx) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	db, err := bbolt.Open(tmp, 0o600, boltOptions)
	if err != nil {
		return err
	}
	if err := db.Update(fn); err != nil {
		_ = db.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := db.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func readBolt(path string, fn func(tx *bbolt.Tx) error) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: boltOptions.Timeout, ReadOnly: true})
	if err != nil {
		return err
	}
	defer db.Close()

	return db.View(fn)
}

func putMeta(tx *bbolt.Tx, backend string, dim int, collection string) error {
	b, err := tx.CreateBucketIfNotExists(bucketMeta)
	if err != nil {
		return err
	}
	if err := b.Put(keyBackend, []byte(backend)); err != nil {
		return err
	}
	if err := b.Put(keyDim, encodeUint64(uint64(dim))); err != nil {
		return err
	}
	return b.Put(keyCollection, []byte(collection))
}

type indexMeta struct {
	backend    string
	dim        int
	collection string
}

func getMeta(tx *bbolt.Tx) (*indexMeta, error) {
	b := tx.Bucket(bucketMeta)
	if b == nil {
		return nil, fmt.Errorf("missing %s bucket", bucketMeta)
	}
	dim := b.Get(keyDim)
	if len(dim) != 8 {
		return nil, fmt.Errorf("corrupted dimension")
	}
	return &indexMeta{
		backend:    string(b.Get(keyBackend)),
		dim:        int(binary.BigEndian.Uint64(dim)),
		collection: string(b.Get(keyCollection)),
	}, nil
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// encodeVector 编码为 8 字节编号加小端 float32 序列。
func encodeVector(id int64, vec []float32) []byte {
	buf := make([]byte, 8+4*len(vec))
	binary.BigEndian.PutUint64(buf, uint64(id))
	for i, x := range vec {
		binary.LittleEndian.PutUint32(buf[8+4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(data []byte, dim int) (int64, []float32, error) {
	if len(data) != 8+4*dim {
		return 0, nil, fmt.Errorf("corrupted vector record: %d bytes for dimension %d", len(data), dim)
	}
	id := int64(binary.BigEndian.Uint64(data))
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[8+4*i:]))
	}
	return id, vec, nil
}
