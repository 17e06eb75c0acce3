package docs

// @title 用户画像分析 API
// @version 1.0
// @description 基于Kaggle notebook活跃记录的用户画像计算、查询和推送服务系统
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http https
