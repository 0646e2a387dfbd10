package transform

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/nexconsult/cnpj-etl/internal/lookup"
	"github.com/nexconsult/cnpj-etl/internal/models"
	"github.com/nexconsult/cnpj-etl/internal/utils"
)

// Field counts of the upstream CSV layouts. Rows with any other width are
// rejected.
const (
	establishmentFields = 30
	companyBaseFields   = 7
	partnerFields       = 11
	taxRegimeFields     = 7
)

// Parser projects raw CSV rows into enriched records. It is stateless apart
// from the loaded lookup tables and is safe for concurrent use.
type Parser struct {
	lookups *lookup.Lookups
	privacy bool
}

func NewParser(lookups *lookup.Lookups, privacy bool) *Parser {
	return &Parser{lookups: lookups, privacy: privacy}
}

// ParseEstablishment converts one establishment row into a Company record.
func (p *Parser) ParseEstablishment(row []string) (*models.Company, error) {
	if len(row) != establishmentFields {
		return nil, errors.Errorf("establishment row has %d fields, want %d", len(row), establishmentFields)
	}

	cnpj, err := buildCNPJ(row[0], row[1], row[2])
	if err != nil {
		return nil, err
	}

	c := &models.Company{
		CNPJ:                      cnpj,
		IdentificadorMatrizFilial: parseIntPtr(row[3]),
		NomeFantasia:              strings.TrimSpace(row[4]),
		SituacaoCadastral:         parseIntPtr(row[5]),
		DataSituacaoCadastral:     parseDate(row[6]),
		MotivoSituacaoCadastral:   parseIntPtr(row[7]),
		NomeCidadeExterior:        strings.TrimSpace(row[8]),
		CodigoPais:                parseIntPtr(row[9]),
		DataInicioAtividade:       parseDate(row[10]),
		CNAEFiscal:                parseIntPtr(row[11]),
		TipoLogradouro:            strings.TrimSpace(row[13]),
		Logradouro:                strings.TrimSpace(row[14]),
		Numero:                    strings.TrimSpace(row[15]),
		Complemento:               strings.TrimSpace(row[16]),
		Bairro:                    strings.TrimSpace(row[17]),
		CEP:                       utils.CleanCNPJ(row[18]),
		UF:                        strings.TrimSpace(row[19]),
		CodigoMunicipio:           parseIntPtr(row[20]),
		DDDTelefone1:              joinPhone(row[21], row[22]),
		DDDTelefone2:              joinPhone(row[23], row[24]),
		DDDFax:                    joinPhone(row[25], row[26]),
		Email:                     strPtr(strings.ToLower(strings.TrimSpace(row[27]))),
		SituacaoEspecial:          strings.TrimSpace(row[28]),
		DataSituacaoEspecial:      parseDate(row[29]),
	}
	if p.privacy {
		c.NomeFantasia = MaskName(c.NomeFantasia)
	}

	// Enrichment: static labels and distributed lookup tables. An unknown
	// code keeps its numeric column and leaves the label null.
	if c.IdentificadorMatrizFilial != nil {
		c.DescricaoMatrizFilial = labelPtr(models.MatrizFilialLabel(*c.IdentificadorMatrizFilial))
	}
	if c.SituacaoCadastral != nil {
		c.DescricaoSituacaoCadastral = labelPtr(models.SituacaoCadastralLabel(*c.SituacaoCadastral))
	}
	if c.MotivoSituacaoCadastral != nil {
		c.DescricaoMotivoSituacaoCadastral = labelPtr(p.lookups.Motive(*c.MotivoSituacaoCadastral))
	}
	if c.CodigoPais != nil {
		c.Pais = labelPtr(p.lookups.Country(*c.CodigoPais))
	}
	if c.CNAEFiscal != nil {
		c.CNAEFiscalDescricao = labelPtr(p.lookups.CNAE(*c.CNAEFiscal))
	}
	if c.CodigoMunicipio != nil {
		c.Municipio = labelPtr(p.lookups.Municipality(*c.CodigoMunicipio))
	}
	return c, nil
}

// ParseCompanyBase converts one base-registry row.
func (p *Parser) ParseCompanyBase(row []string) (*models.CompanyBase, error) {
	if len(row) != companyBaseFields {
		return nil, errors.Errorf("company row has %d fields, want %d", len(row), companyBaseFields)
	}
	basico := strings.TrimSpace(row[0])
	if !utils.IsDigits(basico) || len(basico) > 8 {
		return nil, errors.Errorf("invalid cnpj root %q", basico)
	}
	capital, err := parseCapital(row[4])
	if err != nil {
		return nil, err
	}

	b := &models.CompanyBase{
		CNPJBasico:                utils.PadLeft(basico, 8),
		RazaoSocial:               strings.TrimSpace(row[1]),
		CodigoNaturezaJuridica:    parseIntPtr(row[2]),
		QualificacaoResponsavel:   parseIntPtr(row[3]),
		CapitalSocial:             capital,
		CodigoPorte:               parseIntPtr(row[5]),
		EnteFederativoResponsavel: strings.TrimSpace(row[6]),
	}
	if p.privacy {
		b.RazaoSocial = MaskName(b.RazaoSocial)
	}
	if b.CodigoNaturezaJuridica != nil {
		b.NaturezaJuridica = labelPtr(p.lookups.LegalNature(*b.CodigoNaturezaJuridica))
	}
	if b.CodigoPorte != nil {
		b.Porte = labelPtr(models.PorteLabel(*b.CodigoPorte))
	}
	return b, nil
}

// ParsePartner converts one ownership row.
func (p *Parser) ParsePartner(row []string) (*models.Partner, error) {
	if len(row) != partnerFields {
		return nil, errors.Errorf("partner row has %d fields, want %d", len(row), partnerFields)
	}
	basico := strings.TrimSpace(row[0])
	if !utils.IsDigits(basico) || len(basico) > 8 {
		return nil, errors.Errorf("invalid cnpj root %q", basico)
	}

	s := &models.Partner{
		CNPJBasico:                      utils.PadLeft(basico, 8),
		IdentificadorSocio:              parseIntPtr(row[1]),
		NomeSocio:                       strings.TrimSpace(row[2]),
		CNPJCPFSocio:                    strings.TrimSpace(row[3]),
		CodigoQualificacaoSocio:         parseIntPtr(row[4]),
		DataEntradaSociedade:            parseDate(row[5]),
		CodigoPais:                      parseIntPtr(row[6]),
		RepresentanteLegal:              strings.TrimSpace(row[7]),
		NomeRepresentante:               strings.TrimSpace(row[8]),
		CodigoQualificacaoRepresentante: parseIntPtr(row[9]),
		CodigoFaixaEtaria:               parseIntPtr(row[10]),
	}
	if p.privacy {
		s.NomeSocio = MaskName(s.NomeSocio)
		s.NomeRepresentante = MaskName(s.NomeRepresentante)
		s.CNPJCPFSocio = MaskPersonalID(s.CNPJCPFSocio)
		s.RepresentanteLegal = MaskPersonalID(s.RepresentanteLegal)
	}
	if s.IdentificadorSocio != nil {
		s.DescricaoIdentificadorSocio = labelPtr(models.IdentificadorSocioLabel(*s.IdentificadorSocio))
	}
	if s.CodigoQualificacaoSocio != nil {
		s.QualificacaoSocio = labelPtr(p.lookups.Qualification(*s.CodigoQualificacaoSocio))
	}
	if s.CodigoPais != nil {
		s.Pais = labelPtr(p.lookups.Country(*s.CodigoPais))
	}
	if s.CodigoQualificacaoRepresentante != nil {
		s.QualificacaoRepresentante = labelPtr(p.lookups.Qualification(*s.CodigoQualificacaoRepresentante))
	}
	if s.CodigoFaixaEtaria != nil {
		s.FaixaEtaria = labelPtr(models.FaixaEtariaLabel(*s.CodigoFaixaEtaria))
	}
	return s, nil
}

// ParseTaxRegime converts one Simples Nacional row.
func (p *Parser) ParseTaxRegime(row []string) (*models.TaxRegime, error) {
	if len(row) != taxRegimeFields {
		return nil, errors.Errorf("tax regime row has %d fields, want %d", len(row), taxRegimeFields)
	}
	basico := strings.TrimSpace(row[0])
	if !utils.IsDigits(basico) || len(basico) > 8 {
		return nil, errors.Errorf("invalid cnpj root %q", basico)
	}

	return &models.TaxRegime{
		CNPJBasico:          utils.PadLeft(basico, 8),
		OpcaoSimples:        parseBoolPtr(row[1]),
		DataOpcaoSimples:    parseDate(row[2]),
		DataExclusaoSimples: parseDate(row[3]),
		OpcaoMEI:            parseBoolPtr(row[4]),
		DataOpcaoMEI:        parseDate(row[5]),
		DataExclusaoMEI:     parseDate(row[6]),
	}, nil
}

// buildCNPJ assembles the full 14-digit CNPJ from the root, order, and
// check-digit columns, zero-left-padding each part.
func buildCNPJ(basico, ordem, dv string) (string, error) {
	basico = strings.TrimSpace(basico)
	ordem = strings.TrimSpace(ordem)
	dv = strings.TrimSpace(dv)
	if !utils.IsDigits(basico) || len(basico) > 8 ||
		!utils.IsDigits(ordem) || len(ordem) > 4 ||
		!utils.IsDigits(dv) || len(dv) > 2 {
		return "", errors.Errorf("invalid cnpj parts %q/%q/%q", basico, ordem, dv)
	}
	return utils.PadLeft(basico, 8) + utils.PadLeft(ordem, 4) + utils.PadLeft(dv, 2), nil
}

// parseIntPtr reads a base-10 code column. Empty and non-numeric values map
// to null rather than failing the row.
func parseIntPtr(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// parseDate reads a YYYYMMDD column. Empty, all-zero, and unparsable values
// map to null.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" || s == "00000000" {
		return nil
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return nil
	}
	return &t
}

// parseCapital reads the capital social column, which uses a comma decimal
// separator. A malformed non-empty value fails the row.
func parseCapital(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid capital %q", s)
	}
	d = d.Round(2)
	return &d, nil
}

func parseBoolPtr(s string) *bool {
	var v bool
	switch strings.TrimSpace(strings.ToUpper(s)) {
	case "S":
		v = true
	case "N":
		v = false
	default:
		return nil
	}
	return &v
}

func joinPhone(ddd, number string) string {
	return strings.TrimSpace(strings.TrimSpace(ddd) + strings.TrimSpace(number))
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func labelPtr(label string, ok bool) *string {
	if !ok {
		return nil
	}
	return &label
}
