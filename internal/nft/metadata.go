// internal/nft/metadata.go
package nft

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// TokenMetadataProgramID программа Metaplex Token Metadata.
var TokenMetadataProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

// KeyMetadataV1 тип аккаунта метаданных.
const KeyMetadataV1 uint8 = 4

var (
	ErrNotMetadataAccount = errors.New("account is not a metadata account")
	// ErrCorruptMetadata длина в данных аккаунта больше самих данных.
	ErrCorruptMetadata = errors.New("corrupt metadata account")
)

// Creator в borsh: pubkey + verified + share.
const creatorSize = 32 + 1 + 1

// Creator создатель NFT с долей роялти.
type Creator struct {
	Address  solana.PublicKey
	Verified bool
	Share    uint8
}

// Collection ссылка на коллекцию.
type Collection struct {
	Verified bool
	Key      solana.PublicKey
}

// DataV2 данные метаданных в инструкциях Create/Update.
type DataV2 struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             []Creator // nil кодируется как None
	Collection           *Collection
}

// Metadata декодированный аккаунт метаданных.
type Metadata struct {
	Key                  uint8
	UpdateAuthority      solana.PublicKey
	Mint                 solana.PublicKey
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             []Creator
	PrimarySaleHappened  bool
	IsMutable            bool
	EditionNonce         *uint8
	TokenStandard        *uint8
	Collection           *Collection
	CollectionSize       *uint64 // только у sized коллекций
}

// Data возвращает изменяемую часть метаданных для UpdateMetadataAccountV2.
func (m *Metadata) Data() DataV2 {
	return DataV2{
		Name:                 m.Name,
		Symbol:               m.Symbol,
		URI:                  m.URI,
		SellerFeeBasisPoints: m.SellerFeeBasisPoints,
		Creators:             m.Creators,
		Collection:           m.Collection,
	}
}

// MetadataAddress PDA ["metadata", program, mint].
func MetadataAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("metadata"), TokenMetadataProgramID.Bytes(), mint.Bytes()},
		TokenMetadataProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive metadata address: %w", err)
	}
	return addr, nil
}

// MasterEditionAddress PDA ["metadata", program, mint, "edition"].
func MasterEditionAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("metadata"), TokenMetadataProgramID.Bytes(), mint.Bytes(), []byte("edition")},
		TokenMetadataProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive master edition address: %w", err)
	}
	return addr, nil
}

func writeOption(enc *bin.Encoder, some bool) error {
	return enc.WriteBool(some)
}

func writeCreators(enc *bin.Encoder, creators []Creator) error {
	if err := writeOption(enc, creators != nil); err != nil || creators == nil {
		return err
	}
	if err := enc.WriteUint32(uint32(len(creators)), binary.LittleEndian); err != nil {
		return err
	}
	for _, c := range creators {
		if err := enc.WriteBytes(c.Address.Bytes(), false); err != nil {
			return err
		}
		if err := enc.WriteBool(c.Verified); err != nil {
			return err
		}
		if err := enc.WriteUint8(c.Share); err != nil {
			return err
		}
	}
	return nil
}

func writeCollection(enc *bin.Encoder, c *Collection) error {
	if err := writeOption(enc, c != nil); err != nil || c == nil {
		return err
	}
	if err := enc.WriteBool(c.Verified); err != nil {
		return err
	}
	return enc.WriteBytes(c.Key.Bytes(), false)
}

// MarshalWithEncoder кодирует DataV2 в borsh; uses всегда None.
func (d DataV2) MarshalWithEncoder(enc *bin.Encoder) error {
	for _, s := range []string{d.Name, d.Symbol, d.URI} {
		if err := enc.WriteString(s); err != nil {
			return err
		}
	}
	if err := enc.WriteUint16(d.SellerFeeBasisPoints, binary.LittleEndian); err != nil {
		return err
	}
	if err := writeCreators(enc, d.Creators); err != nil {
		return err
	}
	if err := writeCollection(enc, d.Collection); err != nil {
		return err
	}
	return writeOption(enc, false)
}

func trimPadding(s string) string {
	return strings.TrimRight(s, "\x00")
}

func readPublicKey(dec *bin.Decoder) (solana.PublicKey, error) {
	b, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(b), nil
}

// readOptional читает флаг Option; в конце буфера поле считается отсутствующим.
func readOptional(dec *bin.Decoder) (bool, error) {
	if dec.Remaining() == 0 {
		return false, nil
	}
	return dec.ReadBool()
}

// DecodeMetadata разбирает аккаунт метаданных. Строки дополнены NUL до фиксированной длины.
func DecodeMetadata(data []byte) (*Metadata, error) {
	dec := bin.NewBorshDecoder(data)
	m := &Metadata{}

	var err error
	if m.Key, err = dec.ReadUint8(); err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}
	if m.Key != KeyMetadataV1 {
		return nil, fmt.Errorf("%w: key %d", ErrNotMetadataAccount, m.Key)
	}
	if m.UpdateAuthority, err = readPublicKey(dec); err != nil {
		return nil, fmt.Errorf("read update authority: %w", err)
	}
	if m.Mint, err = readPublicKey(dec); err != nil {
		return nil, fmt.Errorf("read mint: %w", err)
	}

	fields := []*string{&m.Name, &m.Symbol, &m.URI}
	for _, f := range fields {
		s, err := dec.ReadString()
		if err != nil {
			return nil, fmt.Errorf("read data: %w", err)
		}
		*f = trimPadding(s)
	}
	if m.SellerFeeBasisPoints, err = dec.ReadUint16(binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("read seller fee: %w", err)
	}

	hasCreators, err := readOptional(dec)
	if err != nil {
		return nil, err
	}
	if hasCreators {
		n, err := dec.ReadUint32(binary.LittleEndian)
		if err != nil {
			return nil, fmt.Errorf("read creators length: %w", err)
		}
		if uint64(n)*creatorSize > uint64(dec.Remaining()) {
			return nil, fmt.Errorf("%w: %d creators, %d bytes left", ErrCorruptMetadata, n, dec.Remaining())
		}
		m.Creators = make([]Creator, 0, n)
		for i := uint32(0); i < n; i++ {
			var c Creator
			if c.Address, err = readPublicKey(dec); err != nil {
				return nil, fmt.Errorf("read creator: %w", err)
			}
			if c.Verified, err = dec.ReadBool(); err != nil {
				return nil, err
			}
			if c.Share, err = dec.ReadUint8(); err != nil {
				return nil, err
			}
			m.Creators = append(m.Creators, c)
		}
	}

	if m.PrimarySaleHappened, err = dec.ReadBool(); err != nil {
		return nil, fmt.Errorf("read primary sale: %w", err)
	}
	if m.IsMutable, err = dec.ReadBool(); err != nil {
		return nil, fmt.Errorf("read is mutable: %w", err)
	}

	// Хвостовые поля появились в поздних версиях программы и могут отсутствовать.
	for _, dst := range []**uint8{&m.EditionNonce, &m.TokenStandard} {
		ok, err := readOptional(dec)
		if err != nil {
			return nil, err
		}
		if ok {
			v, err := dec.ReadUint8()
			if err != nil {
				return nil, err
			}
			*dst = &v
		}
	}

	ok, err := readOptional(dec)
	if err != nil {
		return nil, err
	}
	if ok {
		c := &Collection{}
		if c.Verified, err = dec.ReadBool(); err != nil {
			return nil, err
		}
		if c.Key, err = readPublicKey(dec); err != nil {
			return nil, err
		}
		m.Collection = c
	}

	// uses: Option<{use_method u8, remaining u64, total u64}>
	ok, err = readOptional(dec)
	if err != nil {
		return nil, err
	}
	if ok {
		if _, err := dec.ReadNBytes(17); err != nil {
			return nil, fmt.Errorf("read uses: %w", err)
		}
	}

	// collection_details: Option<enum V1{size u64}>
	ok, err = readOptional(dec)
	if err != nil {
		return nil, err
	}
	if ok {
		if _, err := dec.ReadUint8(); err != nil {
			return nil, err
		}
		size, err := dec.ReadUint64(binary.LittleEndian)
		if err != nil {
			return nil, fmt.Errorf("read collection size: %w", err)
		}
		m.CollectionSize = &size
	}

	return m, nil
}

func writeCollectionDetails(enc *bin.Encoder, size *uint64) error {
	if err := writeOption(enc, size != nil); err != nil || size == nil {
		return err
	}
	if err := enc.WriteUint8(0); err != nil {
		return err
	}
	return enc.WriteUint64(*size, binary.LittleEndian)
}
