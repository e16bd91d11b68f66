package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lob-api/internal/middleware"
	"github.com/noah-isme/lob-api/internal/models"
)

// Routes groups everything mounted under /api.
type Routes struct {
	Identity   *IdentityHandler
	User       *UserHandler
	Attachment *AttachmentHandler
	Statistics *StatisticsHandler
	Payment    *PaymentHandler
	Navigation *NavigationHandler
	Metrics    *MetricsHandler
	Audit      *AuditHandler

	Tokens   middleware.AccessTokenValidator
	AuditLog middleware.AuditLogWriter
}

// Register mounts the routes as /api/{Controller}/{Action}.
func (rt Routes) Register(r *gin.Engine) {
	r.GET("/health", rt.Metrics.Health)
	r.GET("/ready", rt.Metrics.Ready)
	r.GET("/metrics", rt.Metrics.Prometheus)

	api := r.Group("/api")
	authed := middleware.JWT(rt.Tokens)
	optional := middleware.OptionalJWT(rt.Tokens)
	privileged := []gin.HandlerFunc{authed, middleware.RequirePrivileged()}
	elevated := []gin.HandlerFunc{authed, middleware.RequirePrivileged(), middleware.RequireElevated()}

	identity := api.Group("/Identity")
	identity.POST("/SignUp", rt.Identity.SignUp)
	identity.POST("/SendConfirmEmailToken", rt.Identity.SendConfirmEmailToken)
	identity.POST("/ConfirmEmail", rt.Identity.ConfirmEmail)
	identity.POST("/SendConfirmPhoneToken", rt.Identity.SendConfirmPhoneToken)
	identity.POST("/ConfirmPhone", rt.Identity.ConfirmPhone)
	identity.POST("/SendResetPasswordToken", rt.Identity.SendResetPasswordToken)
	identity.POST("/ResetPassword", rt.Identity.ResetPassword)
	identity.POST("/SignIn", rt.Identity.SignIn)
	identity.POST("/Refresh", rt.Identity.Refresh)
	identity.POST("/SendOtp", rt.Identity.SendOtp)
	identity.POST("/SendTwoFactorToken", rt.Identity.SendTwoFactorToken)
	identity.POST("/GetWebAuthnAssertionOptions", rt.Identity.GetWebAuthnAssertionOptions)
	identity.POST("/VerifyWebAuthAssertion", rt.Identity.VerifyWebAuthAssertion)
	identity.POST("/VerifyWebAuthAndSignIn", rt.Identity.VerifyWebAuthAndSignIn)
	identity.POST("/VerifyWebAuthAndSendTwoFactorToken", rt.Identity.VerifyWebAuthAndSendTwoFactorToken)
	identity.GET("/CloseBrowserPage", middleware.CacheControl(5*time.Minute, 7*24*time.Hour), rt.Identity.CloseBrowserPage)

	user := api.Group("/User", authed)
	user.GET("/GetCurrentUser", rt.User.GetCurrentUser)
	user.GET("/GetUserSessions", rt.User.GetUserSessions)
	user.POST("/SignOut", rt.User.SignOut)
	user.POST("/SendElevatedAccessToken", rt.User.SendElevatedAccessToken)
	user.GET("/DownloadPersonalData", rt.User.DownloadPersonalData)
	user.GET("/ListWebAuthnCredentials", rt.User.ListWebAuthnCredentials)
	user.POST("/SubscribePush", rt.User.SubscribePush)
	user.POST("/UnsubscribePush", rt.User.UnsubscribePush)
	user.PUT("/Update", append(privileged, rt.User.Update)...)
	user.POST("/RevokeSession/:id", append(privileged, rt.User.RevokeSession)...)
	user.POST("/ChangePassword", append(privileged, rt.User.ChangePassword)...)
	user.GET("/GetWebAuthnCredentialOptions", append(privileged, rt.User.GetWebAuthnCredentialOptions)...)
	user.PUT("/CreateWebAuthnCredential", append(privileged, rt.User.CreateWebAuthnCredential)...)
	user.DELETE("/DeleteWebAuthnCredential/:id", append(privileged, rt.User.DeleteWebAuthnCredential)...)
	user.DELETE("/DeleteAllWebAuthnCredentials", append(privileged, rt.User.DeleteAllWebAuthnCredentials)...)
	user.POST("/TwoFactorAuth", append(elevated, rt.User.TwoFactorAuth)...)
	user.DELETE("/Delete", append(elevated, rt.User.Delete)...)

	attachment := api.Group("/Attachment")
	attachment.POST("/UploadProfileImage", append(privileged, rt.Attachment.UploadProfileImage)...)
	attachment.DELETE("/RemoveProfileImage", append(privileged, rt.Attachment.RemoveProfileImage)...)
	attachment.GET("/GetProfileImage/:userId", rt.Attachment.GetProfileImage)

	statistics := api.Group("/Statistics")
	statistics.GET("/GetNugetStats/:packageId", rt.Statistics.GetNugetStats)
	statistics.GET("/GetGitHubStats", rt.Statistics.GetGitHubStats)

	payment := api.Group("/Payment")
	payment.GET("/GetPlans", rt.Payment.GetPlans)
	payment.GET("/ResolvePlan/:number", rt.Payment.ResolvePlan)
	payment.POST("/ProcessPayment", optional, middleware.Audit(rt.AuditLog, models.AuditActionPayment, "payment"), rt.Payment.ProcessPayment)
	payment.GET("/GetReceipt", rt.Payment.GetReceipt)

	api.GET("/Navigation/GetItems", optional, rt.Navigation.GetItems)
	api.GET("/Audit/GetLogs", authed, middleware.RequireRoles(models.RoleSuperAdmin), rt.Audit.GetLogs)
}
