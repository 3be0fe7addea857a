// Package docs содержит описание HTTP API для swagger UI на /docs/.
// Описание соответствует аннотациям обработчиков; пересобирается командой
// swag init -g cmd/helptoken/main.go.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/marketplace/items": {
            "get": {
                "tags": [
                    "Marketplace"
                ],
                "responses": {
                    "200": {
                        "description": "Товары",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/models.MarketplaceItem"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Товары маркетплейса",
                "description": "Возвращает активные товары."
            },
            "post": {
                "tags": [
                    "Marketplace"
                ],
                "parameters": [
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "description": "Товар",
                        "schema": {
                            "$ref": "#/definitions/models.ItemRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Товар создан",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/models.MarketplaceItem"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Некорректный JSON",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Недостаточно прав",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "422": {
                        "description": "Ошибка валидации",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Добавить товар",
                "description": "Создаёт товар с положительной ценой.",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/marketplace/redeem": {
            "post": {
                "tags": [
                    "Ledger"
                ],
                "parameters": [
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "description": "Товар",
                        "schema": {
                            "$ref": "#/definitions/models.RedeemRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Транзакция списания",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/models.Transaction"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Некорректный JSON",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "402": {
                        "description": "Недостаточно токенов",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Недостаточно прав",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Товар не найден или неактивен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "422": {
                        "description": "Ошибка валидации",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Обменять токены на товар",
                "description": "Списывает стоимость товара с баланса и добавляет spend-транзакцию.",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/me/balance": {
            "get": {
                "tags": [
                    "Ledger"
                ],
                "parameters": [
                    {
                        "name": "user_uid",
                        "in": "query",
                        "required": false,
                        "description": "UID пользователя",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Профиль с балансом",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/models.User"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Недостаточно прав",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Пользователь не найден",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Баланс",
                "description": "Возвращает баланс, часы и число проектов. user_uid доступен только администратору."
            }
        },
        "/me/onchain": {
            "get": {
                "tags": [
                    "Ledger"
                ],
                "responses": {
                    "200": {
                        "description": "Агрегаты",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/models.VolunteerStats"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Кошелёк не привязан",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Внешний реестр недоступен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Агрегаты во внешнем реестре",
                "description": "Возвращает минуты, сессии и баланс по привязанному кошельку."
            }
        },
        "/me/transactions": {
            "get": {
                "tags": [
                    "Ledger"
                ],
                "parameters": [
                    {
                        "name": "user_uid",
                        "in": "query",
                        "required": false,
                        "description": "UID пользователя",
                        "type": "string"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Размер страницы",
                        "type": "integer"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "description": "Смещение",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Транзакции",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/models.Transaction"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Недостаточно прав",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Журнал транзакций",
                "description": "Возвращает earn и spend транзакции, новые первыми."
            }
        },
        "/me/wallet": {
            "put": {
                "tags": [
                    "Ledger"
                ],
                "parameters": [
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "description": "Адрес кошелька",
                        "schema": {
                            "$ref": "#/definitions/models.WalletRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Адрес привязан",
                        "schema": {
                            "$ref": "#/definitions/response.Response"
                        }
                    },
                    "400": {
                        "description": "Некорректный JSON",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "422": {
                        "description": "Ошибка валидации",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Привязать кошелёк",
                "description": "Сохраняет адрес, на который зеркалируются начисления во внешнем реестре.",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/opportunities": {
            "get": {
                "tags": [
                    "Catalog"
                ],
                "parameters": [
                    {
                        "name": "all",
                        "in": "query",
                        "required": false,
                        "description": "Включить неактивные",
                        "type": "boolean"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Возможности",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/models.Opportunity"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Недостаточно прав",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Список возможностей",
                "description": "Активные возможности. all=true включает неактивные (только администратор)."
            },
            "post": {
                "tags": [
                    "Catalog"
                ],
                "parameters": [
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "description": "Возможность",
                        "schema": {
                            "$ref": "#/definitions/models.OpportunityRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Создана",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/models.Opportunity"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Некорректный JSON",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Недостаточно прав",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "422": {
                        "description": "Ошибка валидации",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Создать возможность",
                "description": "Создаёт возможность со ставкой в диапазоне [1, 5].",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/opportunities/{id}": {
            "get": {
                "tags": [
                    "Catalog"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "ID возможности",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Возможность",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/models.Opportunity"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Возможность не найдена",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "422": {
                        "description": "Ошибка валидации",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Получить возможность",
                "description": "Возвращает возможность по ID."
            },
            "put": {
                "tags": [
                    "Catalog"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "ID возможности",
                        "type": "integer"
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "description": "Возможность",
                        "schema": {
                            "$ref": "#/definitions/models.OpportunityRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Изменена",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/models.Opportunity"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Некорректный JSON",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Недостаточно прав",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Возможность не найдена",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "422": {
                        "description": "Ошибка валидации",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Изменить возможность",
                "description": "Меняет возможность. Поданные сессии сохраняют свою ставку.",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/sessions": {
            "get": {
                "tags": [
                    "Sessions"
                ],
                "parameters": [
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Размер страницы",
                        "type": "integer"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "description": "Смещение",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Список сессий",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/models.VolunteerSession"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Мои сессии",
                "description": "Возвращает сессии текущего пользователя, новые первыми."
            },
            "post": {
                "tags": [
                    "Sessions"
                ],
                "parameters": [
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "description": "Данные сессии",
                        "schema": {
                            "$ref": "#/definitions/models.SubmitSessionRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Сессия создана",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/models.VolunteerSession"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Некорректный JSON",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Недостаточно прав",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Возможность не найдена или неактивна",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "422": {
                        "description": "Ошибка валидации",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "429": {
                        "description": "Слишком много запросов",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Подать волонтёрскую сессию",
                "description": "Создаёт сессию в статусе pending_verification. hours в диапазоне [0.5, 12].",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/sessions/pending": {
            "get": {
                "tags": [
                    "Sessions"
                ],
                "parameters": [
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Размер страницы",
                        "type": "integer"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "description": "Смещение",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Список сессий",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/models.VolunteerSession"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Недостаточно прав",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Очередь на проверку",
                "description": "Возвращает сессии в статусе pending_verification, старые первыми."
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": [
                    "Sessions"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "ID сессии",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Сессия",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/models.SessionDetails"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Сессия не найдена",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "422": {
                        "description": "Ошибка валидации",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Получить сессию",
                "description": "Возвращает сессию и, если есть, её запись расчёта."
            }
        },
        "/sessions/{id}/decision": {
            "put": {
                "tags": [
                    "Sessions"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "ID сессии",
                        "type": "integer"
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "description": "Решение",
                        "schema": {
                            "$ref": "#/definitions/models.DecisionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Решение записано",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/models.VolunteerSession"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Некорректный JSON",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Недостаточно прав",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Сессия не найдена",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Решение по сессии уже принято",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "422": {
                        "description": "Ошибка валидации",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Принять решение по сессии",
                "description": "Одобряет или отклоняет сессию. Одобрение начисляет токены и ставит запись расчёта в очередь.",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/settlements": {
            "get": {
                "tags": [
                    "Settlements"
                ],
                "parameters": [
                    {
                        "name": "status",
                        "in": "query",
                        "required": false,
                        "description": "pending, confirmed или failed",
                        "type": "string"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Размер страницы",
                        "type": "integer"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "description": "Смещение",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Записи",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "type": "array",
                                            "items": {
                                                "$ref": "#/definitions/models.SettlementRecord"
                                            }
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Недостаточно прав",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "422": {
                        "description": "Ошибка валидации",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Записи расчёта",
                "description": "Записи расчёта с внешним реестром, опционально по статусу."
            }
        },
        "/settlements/{id}": {
            "get": {
                "tags": [
                    "Settlements"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "ID записи",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Запись",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/models.SettlementRecord"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Недостаточно прав",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Запись не найдена",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "422": {
                        "description": "Ошибка валидации",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Получить запись расчёта",
                "description": "Возвращает запись расчёта по ID."
            }
        },
        "/settlements/{id}/retry": {
            "post": {
                "tags": [
                    "Settlements"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "ID записи",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "202": {
                        "description": "Запись снова в очереди",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/response.Response"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/models.SettlementRecord"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "401": {
                        "description": "Нет токена или он недействителен",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Недостаточно прав",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Запись не найдена",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Запись не в статусе failed",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Внутренняя ошибка",
                        "schema": {
                            "$ref": "#/definitions/response.ErrorResponse"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "summary": "Повторить расчёт",
                "description": "Возвращает failed-запись в pending со сброшенным счётчиком попыток."
            }
        }
    },
    "definitions": {
        "models.DecisionRequest": {
            "type": "object",
            "properties": {
                "approved": {
                    "type": "boolean"
                },
                "notes": {
                    "type": "string"
                }
            },
            "required": [
                "approved"
            ]
        },
        "models.ItemRequest": {
            "type": "object",
            "properties": {
                "title": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "cost": {
                    "type": "string",
                    "example": "10.5"
                }
            },
            "required": [
                "title",
                "cost"
            ]
        },
        "models.MarketplaceItem": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "title": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "cost": {
                    "type": "string",
                    "example": "10.5"
                },
                "active": {
                    "type": "boolean"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "models.Opportunity": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "title": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "category": {
                    "type": "string"
                },
                "municipality": {
                    "type": "string"
                },
                "reward_rate": {
                    "type": "string",
                    "example": "10.5"
                },
                "active": {
                    "type": "boolean"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "updated_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "models.OpportunityRequest": {
            "type": "object",
            "properties": {
                "title": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "category": {
                    "type": "string"
                },
                "municipality": {
                    "type": "string"
                },
                "reward_rate": {
                    "type": "string",
                    "example": "10.5"
                },
                "active": {
                    "type": "boolean"
                }
            },
            "required": [
                "title",
                "reward_rate"
            ]
        },
        "models.RedeemRequest": {
            "type": "object",
            "properties": {
                "item_id": {
                    "type": "integer"
                },
                "cost": {
                    "type": "string",
                    "example": "10.5"
                }
            },
            "required": [
                "item_id"
            ]
        },
        "models.SessionDetails": {
            "type": "object",
            "properties": {
                "session": {
                    "$ref": "#/definitions/models.VolunteerSession"
                },
                "settlement": {
                    "$ref": "#/definitions/models.SettlementRecord"
                }
            }
        },
        "models.SettlementRecord": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "session_id": {
                    "type": "integer"
                },
                "opportunity_id": {
                    "type": "integer"
                },
                "volunteer_uid": {
                    "type": "string"
                },
                "minutes": {
                    "type": "integer"
                },
                "idempotency_key": {
                    "type": "string"
                },
                "status": {
                    "type": "string",
                    "enum": [
                        "pending",
                        "confirmed",
                        "failed"
                    ]
                },
                "attempts": {
                    "type": "integer"
                },
                "next_attempt_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "last_error": {
                    "type": "string"
                },
                "external_reference": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "updated_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "confirmed_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "models.SubmitSessionRequest": {
            "type": "object",
            "properties": {
                "opportunity_id": {
                    "type": "integer"
                },
                "hours": {
                    "type": "number",
                    "example": 4
                },
                "description": {
                    "type": "string"
                },
                "photo_url": {
                    "type": "string"
                },
                "location": {
                    "type": "object",
                    "properties": {
                        "latitude": {
                            "type": "number"
                        },
                        "longitude": {
                            "type": "number"
                        }
                    }
                }
            },
            "required": [
                "opportunity_id",
                "hours"
            ]
        },
        "models.Transaction": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "type": {
                    "type": "string",
                    "enum": [
                        "earn",
                        "spend"
                    ]
                },
                "amount": {
                    "type": "string",
                    "example": "10.5"
                },
                "user_uid": {
                    "type": "string"
                },
                "session_id": {
                    "type": "integer"
                },
                "item_id": {
                    "type": "integer"
                },
                "description": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "models.User": {
            "type": "object",
            "properties": {
                "uid": {
                    "type": "string"
                },
                "role": {
                    "type": "string"
                },
                "wallet_address": {
                    "type": "string"
                },
                "balance": {
                    "type": "string",
                    "example": "10.5"
                },
                "total_hours": {
                    "type": "string",
                    "example": "10.5"
                },
                "total_projects": {
                    "type": "integer"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "models.VolunteerSession": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "opportunity_id": {
                    "type": "integer"
                },
                "volunteer_uid": {
                    "type": "string"
                },
                "hours": {
                    "type": "string",
                    "example": "10.5"
                },
                "frozen_reward_rate": {
                    "type": "string",
                    "example": "10.5"
                },
                "tokens_earned": {
                    "type": "string",
                    "example": "10.5"
                },
                "description": {
                    "type": "string"
                },
                "photo_url": {
                    "type": "string"
                },
                "latitude": {
                    "type": "number"
                },
                "longitude": {
                    "type": "number"
                },
                "status": {
                    "type": "string",
                    "enum": [
                        "pending_verification",
                        "verified",
                        "rejected"
                    ]
                },
                "verifier_uid": {
                    "type": "string"
                },
                "verifier_notes": {
                    "type": "string"
                },
                "submitted_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "decided_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "models.VolunteerStats": {
            "type": "object",
            "properties": {
                "address": {
                    "type": "string"
                },
                "total_minutes": {
                    "type": "integer"
                },
                "total_projects": {
                    "type": "integer"
                },
                "total_earned": {
                    "type": "string"
                },
                "balance": {
                    "type": "string"
                }
            }
        },
        "models.WalletRequest": {
            "type": "object",
            "properties": {
                "wallet_address": {
                    "type": "string",
                    "example": "0x52908400098527886e0f7030069857d2e4169ee7"
                }
            },
            "required": [
                "wallet_address"
            ]
        },
        "response.ErrorResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string",
                    "example": "Error"
                },
                "error": {
                    "type": "string",
                    "example": "hours must be between 0.5 and 12"
                }
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string",
                    "example": "OK"
                },
                "error": {
                    "type": "string"
                },
                "data": {}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "HelpToken API",
	Description:      "API учёта волонтёрских часов и токенов",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
