package models

// Label tables the Federal Revenue defines in its layout document but does
// not distribute as code tables. Unknown codes yield no label; the code
// itself is always preserved.

var situacaoCadastral = map[int]string{
	1: "NULA",
	2: "ATIVA",
	3: "SUSPENSA",
	4: "INAPTA",
	8: "BAIXADA",
}

var matrizFilial = map[int]string{
	1: "MATRIZ",
	2: "FILIAL",
}

var porte = map[int]string{
	0: "NÃO INFORMADO",
	1: "MICRO EMPRESA",
	3: "EMPRESA DE PEQUENO PORTE",
	5: "DEMAIS",
}

var identificadorSocio = map[int]string{
	1: "PESSOA JURÍDICA",
	2: "PESSOA FÍSICA",
	3: "ESTRANGEIRO",
}

var faixaEtaria = map[int]string{
	1: "0 a 12 anos",
	2: "13 a 20 anos",
	3: "21 a 30 anos",
	4: "31 a 40 anos",
	5: "41 a 50 anos",
	6: "51 a 60 anos",
	7: "61 a 70 anos",
	8: "71 a 80 anos",
	9: "Maiores de 80 anos",
}

// SituacaoCadastralLabel resolves a registration status code.
func SituacaoCadastralLabel(code int) (string, bool) {
	label, ok := situacaoCadastral[code]
	return label, ok
}

// MatrizFilialLabel resolves the headquarters-or-branch flag.
func MatrizFilialLabel(code int) (string, bool) {
	label, ok := matrizFilial[code]
	return label, ok
}

// PorteLabel resolves a company size bucket.
func PorteLabel(code int) (string, bool) {
	label, ok := porte[code]
	return label, ok
}

// IdentificadorSocioLabel resolves a partner type code.
func IdentificadorSocioLabel(code int) (string, bool) {
	label, ok := identificadorSocio[code]
	return label, ok
}

// FaixaEtariaLabel resolves a partner age bucket code.
func FaixaEtariaLabel(code int) (string, bool) {
	label, ok := faixaEtaria[code]
	return label, ok
}
