package v1

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/therebootai/democlinicsoftwarebackend/internal/config"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/auth"
	"github.com/therebootai/democlinicsoftwarebackend/pkg/metrics"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Auth     *AuthHandler
	Patient  *PatientHandler
	Clinic   *ClinicHandler
	RefData  *RefDataHandler
	JWT      *auth.JWTManager
	Metrics  *metrics.Collector
	CORS     config.CORSConfig
	Log      *zap.Logger
}

// NewRouter mounts the full HTTP surface. Login, register, and OTP are
// open; every other /api route requires a bearer token.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(deps.Log))
	r.Use(Metrics(deps.Metrics))
	r.Use(cors.New(cors.Config{
		AllowOrigins: deps.CORS.AllowedOrigins,
		AllowMethods: deps.CORS.AllowedMethods,
		AllowHeaders: deps.CORS.AllowedHeaders,
		MaxAge:       deps.CORS.MaxAge,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api")

	// Open endpoints.
	api.POST("/user/register", deps.Auth.Register)
	api.POST("/user/login", deps.Auth.Login)
	api.POST("/user/refresh", deps.Auth.Refresh)
	api.POST("/user/send-otp", deps.Auth.SendOTP)
	api.POST("/user/verify-otp", deps.Auth.VerifyOTP)

	authed := api.Group("", Authenticated(deps.JWT))

	users := authed.Group("/user")
	{
		users.GET("/get", deps.Auth.ListUsers)
		users.GET("/get/:userId", deps.Auth.GetUser)
		users.PUT("/change-password", deps.Auth.ChangePassword)
		users.DELETE("/delete/:userId", deps.Auth.DeleteUser)
	}

	patients := authed.Group("/patients")
	{
		patients.POST("/create", deps.Patient.Create)
		patients.GET("/get", deps.Patient.List)
		patients.GET("/get/:patientId", deps.Patient.Get)
		patients.PUT("/update/:patientId", deps.Patient.Update)
		patients.DELETE("/delete/:patientId", deps.Patient.Delete)

		patients.POST("/add/prescriptions/:patientId", deps.Patient.AddPrescription)
		patients.PUT("/update/prescriptions/:patientId/:prescriptionId", deps.Patient.UpdatePrescription)
		patients.DELETE("/delete/prescriptions/:patientId/:prescriptionId", deps.Patient.DeletePrescription)
		patients.PUT("/update/prescriptions/:patientId/:prescriptionId/:subdocument/:customId", deps.Patient.UpdateSubItem)
		patients.DELETE("/delete/prescriptions/:patientId/:prescriptionId/:subdocument/:customId", deps.Patient.DeleteSubItem)
		patients.PUT("/upload/prescriptionpdf/:patientId/:prescriptionId", deps.Patient.AttachPrescriptionPdf)

		patients.POST("/add/document/:patientId", deps.Patient.AddDocument)
		patients.PUT("/update/document/:patientId/:documentId", deps.Patient.UpdateDocument)
		patients.DELETE("/delete/document/:patientId/:documentId", deps.Patient.DeleteDocument)

		patients.PUT("/add/payment/:patientId", deps.Patient.AddPayment)
		patients.PUT("/update/payment/:patientId/:paymentId", deps.Patient.UpdatePayment)

		patients.PUT("/add/tccard/:patientId", deps.Patient.AddTCCard)
		patients.PUT("/update/tccard/:patientId/:tcCardId", deps.Patient.UpdateTCCard)
		patients.DELETE("/delete/tccard/:patientId/:tcCardId", deps.Patient.DeleteTCCard)

		patients.POST("/import-patients", deps.Patient.Import)
		patients.GET("/export", deps.Patient.Export)
	}

	clinics := authed.Group("/clinic")
	{
		clinics.POST("/create", deps.Clinic.Create)
		clinics.GET("/get", deps.Clinic.List)
		clinics.GET("/get/:clinicId", deps.Clinic.Get)
		clinics.GET("/dropdown", deps.Clinic.Dropdown)
		clinics.DELETE("/delete/:clinicId", deps.Clinic.Delete)
	}

	stocks := authed.Group("/stocks")
	{
		stocks.POST("/create", deps.Clinic.CreateStock)
		stocks.GET("/get/:clinicId", deps.Clinic.ListStocks)
		stocks.PUT("/update/:stockId", deps.Clinic.UpdateStock)
		stocks.DELETE("/delete/:stockId", deps.Clinic.DeleteStock)
	}

	// One set of endpoints serves all ~15 lookup collections; the :kind
	// segment names the collection.
	refdata := authed.Group("/:kind")
	{
		refdata.POST("/create", deps.RefData.Create)
		refdata.GET("/get", deps.RefData.List)
		refdata.GET("/dropdown", deps.RefData.Dropdown)
		refdata.DELETE("/delete", deps.RefData.Delete)
	}

	return r
}
