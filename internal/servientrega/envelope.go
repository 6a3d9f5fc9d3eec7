package servientrega

import (
	"encoding/xml"
	"strconv"

	"github.com/google/uuid"

	"github.com/imrishuroy/go-servientrega-webhook/internal/shipping"
)

const (
	soapNamespace = "http://www.w3.org/2003/05/soap-envelope"
	// Namespace qualifies every element of the carrier's contract.
	Namespace = "http://tempuri.org/"
)

// Credentials travel in-band in every request header.
type Credentials struct {
	Login       string
	PasswordEnc string
	BillingCode string
	LoadName    string
}

type envelope struct {
	XMLName xml.Name   `xml:"soap:Envelope"`
	Soap    string     `xml:"xmlns:soap,attr"`
	Tem     string     `xml:"xmlns:tem,attr"`
	Auth    authHeader `xml:"soap:Header>tem:AuthHeader"`
	Body    body       `xml:"soap:Body"`
}

type authHeader struct {
	Login       string `xml:"tem:login"`
	Password    string `xml:"tem:pwd"`
	BillingCode string `xml:"tem:Id_CodFacturacion"`
	LoadName    string `xml:"tem:Nombre_Cargue"`
}

type body struct {
	Guide *guideRequest `xml:"tem:CargueMasivoExterno,omitempty"`
	Label *labelRequest `xml:"tem:GenerarGuiaSticker,omitempty"`
}

type guideRequest struct {
	Shipment shipment `xml:"tem:envios>tem:CargueMasivoExternoDTO>tem:objEnvios>tem:EnviosExterno"`
}

// shipment mirrors EnviosExterno. Only the fields filled from the payload vary.
type shipment struct {
	GuideNumber             int         `xml:"tem:Num_Guia"`
	Sobreporte              int         `xml:"tem:Num_Sobreporte"`
	SobreCajaPorte          int         `xml:"tem:Num_SobreCajaPorte"`
	DeliveryTime            int         `xml:"tem:Fec_TiempoEntrega"`
	RouteType               int         `xml:"tem:Des_TipoTrayecto"`
	BillingCode             string      `xml:"tem:Ide_CodFacturacion"`
	Pieces                  int         `xml:"tem:Num_Piezas"`
	PaymentMethod           int         `xml:"tem:Des_FormaPago"`
	TransportMode           int         `xml:"tem:Des_MedioTransporte"`
	RouteDurationType       int         `xml:"tem:Des_TipoDuracionTrayecto"`
	RouteTypeName           int         `xml:"tem:Nom_TipoTrayecto"`
	Height                  int         `xml:"tem:Num_Alto"`
	Width                   int         `xml:"tem:Num_Ancho"`
	Length                  int         `xml:"tem:Num_Largo"`
	TotalWeight             string      `xml:"tem:Num_PesoTotal"`
	LengthUnit              string      `xml:"tem:Des_UnidadLongitud"`
	WeightUnit              string      `xml:"tem:Des_UnidadPeso"`
	PackagingUnit           string      `xml:"tem:Nom_UnidadEmpaque"`
	GenCajaporte            bool        `xml:"tem:Gen_Cajaporte"`
	GenSobreporte           bool        `xml:"tem:Gen_Sobreporte"`
	EnvelopeContent         string      `xml:"tem:Des_DiceContenerSobre"`
	RelatedDocument         string      `xml:"tem:Doc_Relacionado"`
	CustomField1            string      `xml:"tem:Des_VlrCampoPersonalizado1"`
	RecipientReference      string      `xml:"tem:Ide_Num_Referencia_Dest"`
	InvoiceNumber           string      `xml:"tem:Num_Factura"`
	ProductID               int         `xml:"tem:Ide_Producto"`
	CashOnDelivery          int         `xml:"tem:Num_Recaudo"`
	RecipientsID            string      `xml:"tem:Ide_Destinatarios"`
	ManifestID              string      `xml:"tem:Ide_Manifiesto"`
	SecurityBag             int         `xml:"tem:Num_BolsaSeguridad"`
	Seal                    int         `xml:"tem:Num_Precinto"`
	TotalVolume             int         `xml:"tem:Num_VolumenTotal"`
	PickupAddress           string      `xml:"tem:Des_DireccionRecogida"`
	PickupPhone             string      `xml:"tem:Des_TelefonoRecogida"`
	PickupCity              string      `xml:"tem:Des_CiudadRecogida"`
	BilledWeight            int         `xml:"tem:Num_PesoFacturado"`
	GuideType               int         `xml:"tem:Des_TipoGuia"`
	UploadFileID            string      `xml:"tem:Id_ArchivoCargar"`
	OriginCity              int         `xml:"tem:Des_CiudadOrigen"`
	DeclaredValueTotal      string      `xml:"tem:Num_ValorDeclaradoTotal"`
	SettledValue            int         `xml:"tem:Num_ValorLiquidado"`
	FreightSurcharge        int         `xml:"tem:Num_VlrSobreflete"`
	Freight                 int         `xml:"tem:Num_VlrFlete"`
	Discount                int         `xml:"tem:Num_Descuento"`
	DeclaredValueOverTotal  int         `xml:"tem:Num_ValorDeclaradoSobreTotal"`
	Phone                   string      `xml:"tem:Des_Telefono"`
	City                    string      `xml:"tem:Des_Ciudad"`
	DestinationDepartment   string      `xml:"tem:Des_DepartamentoDestino"`
	Address                 string      `xml:"tem:Des_Direccion"`
	ContactName             string      `xml:"tem:Nom_Contacto"`
	Content                 string      `xml:"tem:Des_DiceContener"`
	RecipientIdentification string      `xml:"tem:Ide_Num_Identific_Dest"`
	RecipientDocumentType   string      `xml:"tem:Tipo_Doc_Destinatario"`
	Mobile                  string      `xml:"tem:Num_Celular"`
	Email                   string      `xml:"tem:Des_CorreoElectronico"`
	SenderCity              string      `xml:"tem:Des_CiudadRemitente"`
	SenderAddress           string      `xml:"tem:Des_DireccionRemitente"`
	OriginDepartment        string      `xml:"tem:Des_DepartamentoOrigen"`
	SenderPhone             string      `xml:"tem:Num_TelefonoRemitente"`
	SenderIdentification    string      `xml:"tem:Num_IdentiRemitente"`
	SenderName              string      `xml:"tem:Nom_Remitente"`
	SenderContactName       string      `xml:"tem:nombrecontacto_remitente"`
	SenderMobile            string      `xml:"tem:celular_remitente"`
	SenderEmail             string      `xml:"tem:correo_remitente"`
	WholesaleChannel        bool        `xml:"tem:Est_CanalMayorista"`
	ChannelSenderName       string      `xml:"tem:Nom_RemitenteCanal"`
	SourceFileID            int         `xml:"tem:Des_IdArchivoOrigen"`
	Package                 packageUnit `xml:"tem:objEnviosUnidadEmpaqueCargue>tem:EnviosUnidadEmpaqueCargue"`
}

type packageUnit struct {
	Height          int    `xml:"tem:Num_Alto"`
	Distributor     int    `xml:"tem:Num_Distribuidor"`
	Width           int    `xml:"tem:Num_Ancho"`
	Quantity        int    `xml:"tem:Num_Cantidad"`
	Content         string `xml:"tem:Des_DiceContener"`
	SourceFileID    int    `xml:"tem:Des_IdArchivoOrigen"`
	Length          int    `xml:"tem:Num_Largo"`
	PackagingUnit   string `xml:"tem:Nom_UnidadEmpaque"`
	Weight          int    `xml:"tem:Num_Peso"`
	LengthUnit      string `xml:"tem:Des_UnidadLongitud"`
	WeightUnit      string `xml:"tem:Des_UnidadPeso"`
	PackagingUnitID string `xml:"tem:Ide_UnidadEmpaque"`
	ShipmentID      string `xml:"tem:Ide_Envio"`
	Volume          int    `xml:"tem:Num_Volumen"`
	Sequence        int    `xml:"tem:Num_Consecutivo"`
	BillingCode     string `xml:"tem:Cod_Facturacion"`
	DeclaredValue   string `xml:"tem:Num_ValorDeclarado"`
	Indicator       int    `xml:"tem:Indicador"`
	BoxNumber       string `xml:"tem:NumeroDeCaja"`
	FileID          string `xml:"tem:Id_archivo"`
}

type labelRequest struct {
	GuideNumber      string `xml:"tem:num_Guia"`
	FinalGuideNumber string `xml:"tem:num_GuiaFinal"`
	BillingCode      string `xml:"tem:ide_CodFacturacion"`
	PrintFormat      int    `xml:"tem:sFormatoImpresionGuia"`
	Internal         bool   `xml:"tem:interno"`
}

// Carrier contract constants.
const (
	boxSide          = 5
	lengthUnit       = "cm"
	weightUnit       = "kg"
	packagingGeneric = "GENERICA"
	paymentCredit    = 2
	productCode      = 2
	guideType        = 2
	destinationCode  = "11001000"
	documentTypeNIT  = "NIT"
	sourceFileID     = 123
	stickerFormat    = 1
)

func newEnvelope(creds Credentials, b body) envelope {
	return envelope{
		Soap: soapNamespace,
		Tem:  Namespace,
		Auth: authHeader{
			Login:       creds.Login,
			Password:    creds.PasswordEnc,
			BillingCode: creds.BillingCode,
			LoadName:    creds.LoadName,
		},
		Body: b,
	}
}

// guideEnvelope builds the CargueMasivoExterno request for one payload.
func guideEnvelope(creds Credentials, p shipping.ShipmentPayload) envelope {
	zero := uuid.Nil.String()
	value := formatNumber(p.DeclaredValue)

	s := shipment{
		DeliveryTime:            1,
		RouteType:               1,
		BillingCode:             creds.BillingCode,
		Pieces:                  p.Pieces,
		PaymentMethod:           paymentCredit,
		TransportMode:           1,
		RouteDurationType:       1,
		RouteTypeName:           1,
		Height:                  boxSide,
		Width:                   boxSide,
		Length:                  boxSide,
		TotalWeight:             formatNumber(p.TotalWeight),
		LengthUnit:              lengthUnit,
		WeightUnit:              weightUnit,
		PackagingUnit:           packagingGeneric,
		RelatedDocument:         p.Reference,
		ProductID:               productCode,
		RecipientsID:            zero,
		ManifestID:              zero,
		GuideType:               guideType,
		DeclaredValueTotal:      value,
		Phone:                   p.Recipient.Phone,
		City:                    destinationCode,
		DestinationDepartment:   destinationCode,
		Address:                 p.Recipient.Address,
		ContactName:             p.Recipient.Name,
		Content:                 p.Content,
		RecipientIdentification: p.Recipient.Identification,
		RecipientDocumentType:   documentTypeNIT,
		SourceFileID:            sourceFileID,
		Package: packageUnit{
			Height:          boxSide,
			Width:           boxSide,
			Quantity:        1,
			Content:         p.Content,
			SourceFileID:    sourceFileID,
			Length:          boxSide,
			PackagingUnit:   packagingGeneric,
			Weight:          1,
			LengthUnit:      lengthUnit,
			WeightUnit:      weightUnit,
			PackagingUnitID: zero,
			ShipmentID:      zero,
			DeclaredValue:   value,
			Indicator:       1,
		},
	}
	return newEnvelope(creds, body{Guide: &guideRequest{Shipment: s}})
}

// labelEnvelope builds the GenerarGuiaSticker request for one guide.
func labelEnvelope(creds Credentials, guide string) envelope {
	return newEnvelope(creds, body{Label: &labelRequest{
		GuideNumber:      guide,
		FinalGuideNumber: guide,
		BillingCode:      creds.BillingCode,
		PrintFormat:      stickerFormat,
	}})
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
