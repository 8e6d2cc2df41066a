package engine

import "github.com/klauspost/compress/zstd"

// codec wraps a reusable zstd encoder/decoder pair. Both are safe for
// repeated EncodeAll/DecodeAll calls and are built once per Store.
type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCodec() (*codec, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &codec{enc: enc, dec: dec}, nil
}

func (c *codec) compress(data []byte) []byte {
	return c.enc.EncodeAll(data, nil)
}

func (c *codec) decompress(data []byte) ([]byte, error) {
	return c.dec.DecodeAll(data, nil)
}

func (c *codec) close() {
	c.enc.Close()
	c.dec.Close()
}
